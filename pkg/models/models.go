// Package models declares the subscription domain models the provider binds
// into the host container. Persistence and behavior belong to the host; these
// types carry the columns created by the bundled migrations.
package models

import (
	"strings"

	"github.com/agentstation/utc"
)

// Interval units used by plan periods.
const (
	IntervalDay   = "day"
	IntervalWeek  = "week"
	IntervalMonth = "month"
	IntervalYear  = "year"
)

// Plan is a purchasable subscription plan.
type Plan struct {
	ID                     int64             `json:"id" yaml:"id"`
	Slug                   string            `json:"slug" yaml:"slug"`
	Name                   map[string]string `json:"name" yaml:"name"`
	Description            map[string]string `json:"description,omitempty" yaml:"description,omitempty"`
	IsActive               bool              `json:"is_active" yaml:"is_active"`
	Price                  float64           `json:"price" yaml:"price"`
	SignupFee              float64           `json:"signup_fee" yaml:"signup_fee"`
	Currency               string            `json:"currency" yaml:"currency"`
	TrialPeriod            int               `json:"trial_period" yaml:"trial_period"`
	TrialInterval          string            `json:"trial_interval" yaml:"trial_interval"`
	InvoicePeriod          int               `json:"invoice_period" yaml:"invoice_period"`
	InvoiceInterval        string            `json:"invoice_interval" yaml:"invoice_interval"`
	GracePeriod            int               `json:"grace_period" yaml:"grace_period"`
	GraceInterval          string            `json:"grace_interval" yaml:"grace_interval"`
	ActiveSubscribersLimit *int              `json:"active_subscribers_limit,omitempty" yaml:"active_subscribers_limit,omitempty"`
	SortOrder              int               `json:"sort_order" yaml:"sort_order"`
	CreatedAt              utc.Time          `json:"created_at" yaml:"created_at"`
	UpdatedAt              utc.Time          `json:"updated_at" yaml:"updated_at"`
}

// PlanFeature is a capability or quota attached to a plan.
type PlanFeature struct {
	ID                 int64             `json:"id" yaml:"id"`
	PlanID             int64             `json:"plan_id" yaml:"plan_id"`
	Slug               string            `json:"slug" yaml:"slug"`
	Name               map[string]string `json:"name" yaml:"name"`
	Value              string            `json:"value" yaml:"value"`
	ResettablePeriod   int               `json:"resettable_period" yaml:"resettable_period"`
	ResettableInterval string            `json:"resettable_interval" yaml:"resettable_interval"`
	SortOrder          int               `json:"sort_order" yaml:"sort_order"`
	CreatedAt          utc.Time          `json:"created_at" yaml:"created_at"`
	UpdatedAt          utc.Time          `json:"updated_at" yaml:"updated_at"`
}

// PlanSubscription binds a subscriber to a plan.
type PlanSubscription struct {
	ID             int64             `json:"id" yaml:"id"`
	SubscriberType string            `json:"subscriber_type" yaml:"subscriber_type"`
	SubscriberID   int64             `json:"subscriber_id" yaml:"subscriber_id"`
	PlanID         int64             `json:"plan_id" yaml:"plan_id"`
	Slug           string            `json:"slug" yaml:"slug"`
	Name           map[string]string `json:"name" yaml:"name"`
	TrialEndsAt    utc.Time          `json:"trial_ends_at" yaml:"trial_ends_at"`
	StartsAt       utc.Time          `json:"starts_at" yaml:"starts_at"`
	EndsAt         utc.Time          `json:"ends_at" yaml:"ends_at"`
	CanceledAt     utc.Time          `json:"canceled_at" yaml:"canceled_at"`
	CreatedAt      utc.Time          `json:"created_at" yaml:"created_at"`
	UpdatedAt      utc.Time          `json:"updated_at" yaml:"updated_at"`
}

// PlanSubscriptionUsage tracks consumption of a feature by a subscription.
type PlanSubscriptionUsage struct {
	ID             int64    `json:"id" yaml:"id"`
	SubscriptionID int64    `json:"subscription_id" yaml:"subscription_id"`
	FeatureID      int64    `json:"feature_id" yaml:"feature_id"`
	Used           int      `json:"used" yaml:"used"`
	ValidUntil     utc.Time `json:"valid_until" yaml:"valid_until"`
	CreatedAt      utc.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt      utc.Time `json:"updated_at" yaml:"updated_at"`
}

// Model names, appended to the dotted package namespace to form container identifiers.
const (
	NamePlan                  = "plan"
	NamePlanFeature           = "plan_feature"
	NamePlanSubscription      = "plan_subscription"
	NamePlanSubscriptionUsage = "plan_subscription_usage"
)

// Definition pairs a model name with its constructor.
type Definition struct {
	Name string
	New  func() any
}

// Definitions returns every model in registration order.
func Definitions() []Definition {
	return []Definition{
		{Name: NamePlan, New: func() any { return NewPlan() }},
		{Name: NamePlanFeature, New: func() any { return NewPlanFeature() }},
		{Name: NamePlanSubscription, New: func() any { return NewPlanSubscription() }},
		{Name: NamePlanSubscriptionUsage, New: func() any { return NewPlanSubscriptionUsage() }},
	}
}

// ID is the container identifier of a model: "<dotted namespace>.<name>".
func ID(namespace, name string) string {
	return strings.ReplaceAll(namespace, "/", ".") + "." + name
}

// NewPlan returns a plan with the column defaults of the plans table.
func NewPlan() *Plan {
	return &Plan{
		Name:            map[string]string{},
		IsActive:        true,
		TrialInterval:   IntervalDay,
		InvoiceInterval: IntervalMonth,
		GraceInterval:   IntervalDay,
	}
}

// NewPlanFeature returns a feature with the column defaults of the plan_features table.
func NewPlanFeature() *PlanFeature {
	return &PlanFeature{
		Name:               map[string]string{},
		ResettableInterval: IntervalMonth,
	}
}

// NewPlanSubscription returns an empty subscription.
func NewPlanSubscription() *PlanSubscription {
	return &PlanSubscription{Name: map[string]string{}}
}

// NewPlanSubscriptionUsage returns an empty usage record.
func NewPlanSubscriptionUsage() *PlanSubscriptionUsage {
	return &PlanSubscriptionUsage{}
}
