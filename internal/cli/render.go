package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Rrens/parley/internal/domain"
	"github.com/Rrens/parley/internal/negotiation"
)

// render writes v in the selected output format. text falls back to fn.
func (t *table) render(v any, fn func(w io.Writer)) error {
	switch t.format {
	case "", "text":
		fn(t.out)
		return nil
	case "json":
		enc := json.NewEncoder(t.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		data, err := jsonToYAML(v)
		if err != nil {
			return err
		}
		_, err = t.out.Write(data)
		return err
	default:
		return fmt.Errorf("unknown output format %q", t.format)
	}
}

// jsonToYAML renders v through its JSON encoding so field names match the
// HTTP API. Decoding into a node keeps the key order.
func jsonToYAML(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	blockStyle(&node)
	return encodeYAML(&node)
}

// blockStyle drops the flow and quoting styles the JSON source left on
// every node. Strings that would read back as another type stay quoted.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

func encodeYAML(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeList(w io.Writer, items []domain.Negotiation) {
	if len(items) == 0 {
		fmt.Fprintln(w, "no negotiations")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tNPC\tSTATUS\tINTEREST\tPATIENCE\tOUTCOME")
	for _, n := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d/%d\t%s\n",
			n.ID, n.Name, n.NPCName, n.Status,
			n.Counters.Interest, n.Counters.Patience, n.Counters.PatienceCap,
			outcomeText(n.Outcome))
	}
	tw.Flush()
}

func writeNegotiation(w io.Writer, n *domain.Negotiation) {
	fmt.Fprintf(w, "%s (%s)\n", n.Name, n.ID)
	fmt.Fprintf(w, "NPC:      %s\n", n.NPCName)
	if n.Description != "" {
		fmt.Fprintf(w, "About:    %s\n", n.Description)
	}
	fmt.Fprintf(w, "Status:   %s\n", n.Status)
	writeCounters(w, n)
	if n.Outcome != nil {
		fmt.Fprintf(w, "Outcome:  %s\n", *n.Outcome)
	}
	fmt.Fprintln(w)
	writeTraits(w, n)

	if len(n.Arguments) == 0 {
		return
	}
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTIER\tMOTIVATION\tINTEREST\tPATIENCE\tDESCRIPTION")
	for i, a := range n.Arguments {
		motivation := "-"
		if a.MotivationType != nil {
			motivation = string(*a.MotivationType)
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\n",
			i+1, a.Tier, motivation, signed(a.InterestChange), signed(a.PatienceChange), a.Description)
	}
	tw.Flush()
}

func writeCounters(w io.Writer, n *domain.Negotiation) {
	fmt.Fprintf(w, "Interest: %d/%d\n", n.Counters.Interest, negotiation.MaxInterest)
	fmt.Fprintf(w, "Patience: %d/%d\n", n.Counters.Patience, n.Counters.PatienceCap)
}

func writeTraits(w io.Writer, n *domain.Negotiation) {
	fmt.Fprintln(w, "Motivations:")
	for _, m := range n.Traits.Motivations {
		state := "concealed"
		if m.IsKnown {
			state = "known"
		}
		line := fmt.Sprintf("  %-17s %-9s", m.Type, state)
		if m.TimesUsed > 0 {
			line += fmt.Sprintf(" used %dx", m.TimesUsed)
		}
		if m.Description != "" {
			line += "  " + m.Description
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
	fmt.Fprintln(w, "Pitfalls:")
	for i, p := range n.Traits.Pitfalls {
		state := "concealed"
		if p.IsKnown {
			state = "known"
		}
		fmt.Fprintf(w, "  [%d] %-9s %s\n", i, state, p.Description)
	}
}

func writeTraitView(w io.Writer, v *domain.TraitView) {
	fmt.Fprintln(w, "Known motivations:")
	for _, m := range v.KnownMotivations {
		fmt.Fprintf(w, "  %s\n", m.Type)
	}
	fmt.Fprintf(w, "Concealed motivations: %d\n", v.ConcealedMotivations)
	fmt.Fprintln(w, "Known pitfalls:")
	for _, p := range v.KnownPitfalls {
		fmt.Fprintf(w, "  %s\n", p.Description)
	}
	fmt.Fprintf(w, "Concealed pitfalls: %d\n", v.ConcealedPitfalls)
}

func writeApplied(w io.Writer, res *domain.ArgumentApplied) {
	fmt.Fprintf(w, "Tier %d argument: interest %s, patience %s\n",
		res.Argument.Tier, signed(res.Argument.InterestChange), signed(res.Argument.PatienceChange))
	fmt.Fprintf(w, "Interest: %d/%d\n", res.Counters.Interest, negotiation.MaxInterest)
	fmt.Fprintf(w, "Patience: %d/%d\n", res.Counters.Patience, res.Counters.PatienceCap)
	if res.PatienceExhausted {
		fmt.Fprintln(w, "The NPC has run out of patience.")
	}
	if res.Completed {
		fmt.Fprintf(w, "Outcome:  %s\n", outcomeText(res.Outcome))
	}
}

func writeOutcome(w io.Writer, n *domain.Negotiation) {
	fmt.Fprintf(w, "%s concludes the negotiation with interest %d.\n", n.NPCName, n.Counters.Interest)
	fmt.Fprintf(w, "Outcome:  %s\n", outcomeText(n.Outcome))
}

func writeHistory(w io.Writer, entries []domain.HistoryEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "no completed negotiations")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tNAME\tNPC\tOUTCOME\tINTEREST\tARGUMENTS")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\n",
			e.OccurredAt.Local().Format(time.DateTime), e.Name, e.NPCName, e.Outcome, e.FinalInterest, e.ArgumentCount)
	}
	tw.Flush()
}

func outcomeText(o *negotiation.Outcome) string {
	if o == nil {
		return "-"
	}
	return strings.ReplaceAll(string(*o), "_", " ")
}
