package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lumahq/roster/config"
	"github.com/lumahq/roster/pkg/roster"
)

func newBatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "batch <csv-file>",
		Short: "Reconcile a contact CSV into the roster",
		Long: `Reconcile a contact list CSV against the corporate directory.

The CSV needs a header row with at least an "email" column; "name",
"attendance", and "rsvp" columns are picked up when present. Contacts
already on the roster (or repeated in the file) are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contacts, err := readContactsCSV(args[0])
			if err != nil {
				return err
			}

			engine, err := buildEngine()
			if err != nil {
				return err
			}

			var onProgress roster.ProgressFunc
			if cfg.OutputFormat == config.OutputFormatText {
				onProgress = func(p roster.BatchProgress) {
					fmt.Fprintf(cmd.ErrOrStderr(), "[%d/%d] %s\n", p.Current, p.Total, p.Email)
				}
			}

			result, err := engine.BatchAdd(cmd.Context(), contacts, roster.SourceCSV, onProgress)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "added %d (internal %d, external %d), skipped %d\n",
				result.Added, result.MatchedInternal, result.External, result.SkippedDuplicate)

			return printRoster(cmd, engine.Participants())
		},
	}
}

// readContactsCSV parses a header-row contact CSV into contacts.
func readContactsCSV(path string) ([]roster.Contact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening contacts file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := cols["email"]; !ok {
		return nil, fmt.Errorf("contacts file needs an %q column", "email")
	}

	field := func(record []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var contacts []roster.Contact
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV record: %w", err)
		}
		contacts = append(contacts, roster.Contact{
			Name:           field(record, "name"),
			Email:          field(record, "email"),
			AttendanceType: field(record, "attendance"),
			ResponseStatus: field(record, "rsvp"),
		})
	}

	return contacts, nil
}
