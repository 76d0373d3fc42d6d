package cost

import "strings"

// Rate is per-million-token pricing for one model, in dollars.
type Rate struct {
	InputPerM  float64 `koanf:"input" json:"input" yaml:"input"`
	OutputPerM float64 `koanf:"output" json:"output" yaml:"output"`
}

// Table maps model names to rates. Lookup tries an exact match first, then
// the longest prefix, so "claude-sonnet-4-6" also covers dated snapshots.
type Table map[string]Rate

// DefaultTable returns published list prices for commonly used models.
// Unknown models estimate to zero rather than guessing.
func DefaultTable() Table {
	return Table{
		"claude-opus-4":     {InputPerM: 15.00, OutputPerM: 75.00},
		"claude-sonnet-4":   {InputPerM: 3.00, OutputPerM: 15.00},
		"claude-haiku-4":    {InputPerM: 0.80, OutputPerM: 4.00},
		"claude-3-5-haiku":  {InputPerM: 0.80, OutputPerM: 4.00},
		"gpt-5":             {InputPerM: 1.25, OutputPerM: 10.00},
		"gpt-5-mini":        {InputPerM: 0.25, OutputPerM: 2.00},
		"gpt-4o":            {InputPerM: 2.50, OutputPerM: 10.00},
		"gpt-4o-mini":       {InputPerM: 0.15, OutputPerM: 0.60},
		"o3":                {InputPerM: 2.00, OutputPerM: 8.00},
		"gemini-2.5-pro":    {InputPerM: 1.25, OutputPerM: 10.00},
		"gemini-2.5-flash":  {InputPerM: 0.30, OutputPerM: 2.50},
		"gemini-2.0-flash":  {InputPerM: 0.10, OutputPerM: 0.40},
	}
}

// Merge overlays overrides onto the table, returning a new table.
func (t Table) Merge(overrides Table) Table {
	out := make(Table, len(t)+len(overrides))
	for k, v := range t {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// Lookup finds the rate for a model, preferring an exact match and falling
// back to the longest matching prefix.
func (t Table) Lookup(model string) (Rate, bool) {
	m := strings.ToLower(model)
	if r, ok := t[m]; ok {
		return r, true
	}
	best := ""
	for name := range t {
		if strings.HasPrefix(m, name) && len(name) > len(best) {
			best = name
		}
	}
	if best == "" {
		return Rate{}, false
	}
	return t[best], true
}

// Estimate returns the dollar cost of a call. Models without a rate cost 0.
func (t Table) Estimate(model string, inputTokens, outputTokens int) float64 {
	r, ok := t.Lookup(model)
	if !ok {
		return 0
	}
	return float64(inputTokens)*r.InputPerM/1e6 + float64(outputTokens)*r.OutputPerM/1e6
}
