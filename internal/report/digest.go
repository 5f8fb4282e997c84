// Package report renders the weekly channel-health digest from Liquid
// templates.
package report

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/osteele/liquid"

	"github.com/ignite/crm-atlas/internal/domain"
)

// DigestInput carries everything one digest render needs.
type DigestInput struct {
	WeekStart time.Time
	Flags     []domain.HealthFlag
	Conflicts []domain.FlowConflict

	// FlowNames maps workflow IDs to display names; unknown IDs fall back
	// to the raw ID.
	FlowNames map[string]string
}

// Renderer renders health digests. Parsed templates are cached; rendering is
// safe for concurrent use.
type Renderer struct {
	engine *liquid.Engine
	cache  sync.Map // map[string]*liquid.Template
}

// NewRenderer creates a digest renderer with the status filters registered.
func NewRenderer() *Renderer {
	r := &Renderer{engine: liquid.NewEngine()}
	r.registerFilters()
	return r
}

func (r *Renderer) registerFilters() {
	// Status marker: {{ flag.status | badge }}
	r.engine.RegisterFilter("badge", func(status string) string {
		switch domain.HealthStatus(status) {
		case domain.StatusRed:
			return "🔴"
		case domain.StatusAmber:
			return "🟠"
		case domain.StatusGreen:
			return "🟢"
		}
		return "⚪"
	})

	// Signed percentage arrow: {{ flag.delta_wow | arrow }}
	r.engine.RegisterFilter("arrow", func(v interface{}) string {
		f, ok := v.(float64)
		if !ok {
			return "–"
		}
		if f >= 0 {
			return fmt.Sprintf("▲ +%.1f%%", f)
		}
		return fmt.Sprintf("▼ %.1f%%", f)
	})

	// One-decimal percentage: {{ value | pct1 }}
	r.engine.RegisterFilter("pct1", func(v interface{}) string {
		f, ok := v.(float64)
		if !ok {
			return "n/a"
		}
		return fmt.Sprintf("%.1f%%", f)
	})
}

// defaultDigestTemplate is the built-in weekly digest. Callers may supply
// their own template through RenderTemplate.
const defaultDigestTemplate = `# Channel Health Digest — week of {{ week_start }}

{% if red_count > 0 %}**{{ red_count }} metric(s) red this week.**{% else %}No red metrics this week.{% endif %}

## Flags
{% for row in rows %}{{ row.status | badge }} {{ row.flow }} · {{ row.channel }} · {{ row.metric }}: {{ row.value }} {% if row.has_delta %}({{ row.delta | arrow }} WoW){% endif %}
    {{ row.reason }}
{% endfor %}
{% if conflicts.size > 0 %}## Top flow conflicts
{% for c in conflicts %}- [{{ c.band }}] {{ c.a }} ↔ {{ c.b }} (score {{ c.score }})
{% endfor %}{% endif %}`

// RenderWeekly renders the built-in digest for the given input.
func (r *Renderer) RenderWeekly(input DigestInput) (string, error) {
	return r.RenderTemplate("weekly-default", defaultDigestTemplate, input)
}

// RenderTemplate renders a caller-supplied digest template. cacheKey scopes
// the parse cache; pass distinct keys for distinct template bodies.
func (r *Renderer) RenderTemplate(cacheKey, templateStr string, input DigestInput) (string, error) {
	tpl, err := r.parse(cacheKey, templateStr)
	if err != nil {
		return "", fmt.Errorf("parse digest template: %w", err)
	}
	out, err := tpl.RenderString(r.bindings(input))
	if err != nil {
		return "", fmt.Errorf("render digest: %w", err)
	}
	return strings.TrimRight(out, "\n") + "\n", nil
}

func (r *Renderer) parse(cacheKey, templateStr string) (*liquid.Template, error) {
	if cached, ok := r.cache.Load(cacheKey); ok {
		return cached.(*liquid.Template), nil
	}
	tpl, err := r.engine.ParseString(templateStr)
	if err != nil {
		return nil, err
	}
	r.cache.Store(cacheKey, tpl)
	return tpl, nil
}

func (r *Renderer) bindings(input DigestInput) map[string]interface{} {
	flowName := func(id string) string {
		if name, ok := input.FlowNames[id]; ok {
			return name
		}
		return id
	}

	// Worst status first, then flow name, so the digest reads top-down by
	// severity.
	flags := make([]domain.HealthFlag, len(input.Flags))
	copy(flags, input.Flags)
	sort.SliceStable(flags, func(i, j int) bool {
		if flags[i].Status.Rank() != flags[j].Status.Rank() {
			return flags[i].Status.Rank() > flags[j].Status.Rank()
		}
		return flowName(flags[i].WorkflowID) < flowName(flags[j].WorkflowID)
	})

	redCount := 0
	rows := make([]map[string]interface{}, 0, len(flags))
	for _, f := range flags {
		if f.Status == domain.StatusRed {
			redCount++
		}
		value := "n/a"
		if f.Value != nil {
			value = fmt.Sprintf("%.1f%%", *f.Value)
		}
		row := map[string]interface{}{
			"flow":      flowName(f.WorkflowID),
			"channel":   string(f.Channel),
			"metric":    f.MetricName,
			"status":    string(f.Status),
			"value":     value,
			"reason":    f.Reason,
			"has_delta": f.DeltaWoW != nil,
		}
		if f.DeltaWoW != nil {
			row["delta"] = *f.DeltaWoW
		}
		rows = append(rows, row)
	}

	conflicts := make([]map[string]interface{}, 0, len(input.Conflicts))
	for _, c := range input.Conflicts {
		conflicts = append(conflicts, map[string]interface{}{
			"a":     c.FlowAName,
			"b":     c.FlowBName,
			"score": c.RiskScore,
			"band":  string(c.RiskBand),
		})
	}

	return map[string]interface{}{
		"week_start": input.WeekStart.Format("2006-01-02"),
		"rows":       rows,
		"red_count":  redCount,
		"conflicts":  conflicts,
	}
}
