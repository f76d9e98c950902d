package output

import (
	"github.com/muhamedRadwan/subscriptions/pkg/publish"
)

// PublishData lays out publish results as one row per file.
func PublishData(results []*publish.Result) Data {
	data := Data{
		Headers:         []string{"Tag", "Source", "Destination", "Action", "Status"},
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignLeft, AlignLeft, AlignLeft},
	}

	for _, r := range results {
		if r.Suppressed {
			data.Rows = append(data.Rows, []string{r.Tag, "", "", "", "suppressed"})
			continue
		}
		for _, o := range r.Outcomes {
			status := string(o.Status)
			if o.Err != nil {
				status += ": " + o.Err.Error()
			}
			data.Rows = append(data.Rows, []string{r.Tag, o.Source, o.Destination, string(o.Action), status})
		}
	}
	return data
}

// NamesData lays out a list of names under a single header.
func NamesData(header string, names []string) Data {
	data := Data{Headers: []string{header}}
	for _, n := range names {
		data.Rows = append(data.Rows, []string{n})
	}
	return data
}
