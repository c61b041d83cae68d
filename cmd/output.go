package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lumahq/roster/config"
	"github.com/lumahq/roster/pkg/roster"
)

// participantView is the flattened participant shape for CLI output.
type participantView struct {
	RawText      string `json:"raw_text"`
	Source       string `json:"source"`
	Status       string `json:"status"`
	DisplayName  string `json:"display_name,omitempty"`
	Email        string `json:"email,omitempty"`
	Confidence   string `json:"confidence,omitempty"`
	Availability string `json:"availability,omitempty"`
	Error        string `json:"error,omitempty"`
}

func viewOf(p roster.Participant) participantView {
	v := participantView{
		RawText:     p.RawText,
		Source:      string(p.Source),
		DisplayName: p.DisplayName(),
		Email:       p.Email(),
		Error:       p.MatchError(),
	}

	switch state := p.State.(type) {
	case roster.MatchedInternal:
		v.Status = "matched"
		v.Confidence = string(state.Confidence)
	case roster.MatchedExternal:
		v.Status = "external"
	case roster.Searching:
		v.Status = "searching"
	default:
		v.Status = "unmatched"
	}

	if p.Presence != nil {
		v.Availability = string(p.Presence.Availability)
	}
	return v
}

// printRoster renders the roster in the configured output format.
func printRoster(cmd *cobra.Command, participants []roster.Participant) error {
	views := make([]participantView, len(participants))
	for i, p := range participants {
		views[i] = viewOf(p)
	}

	if cfg.OutputFormat == config.OutputFormatJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tEMAIL\tSTATUS\tCONFIDENCE\tPRESENCE")
	for _, v := range views {
		name := v.DisplayName
		if name == "" {
			name = v.RawText
		}
		status := v.Status
		if v.Error != "" {
			status = status + " (" + v.Error + ")"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", name, v.Email, status, v.Confidence, v.Availability)
	}
	return w.Flush()
}
