package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"vehicle-admin/internal/config"
	"vehicle-admin/internal/editor"
	"vehicle-admin/internal/models"

	"github.com/spf13/cobra"
)

func printSection(w io.Writer, a models.VehicleAggregate, sec editor.Section) {
	fmt.Fprintf(w, "== %s\n", sec.Title())
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, row := range SectionValues(a, sec) {
		fmt.Fprintf(tw, "  %s\t%s\n", row[0], row[1])
	}
	tw.Flush()
}

func printDocuments(w io.Writer, docs []models.VehicleDocument) {
	fmt.Fprintf(w, "== Documents (%d)\n", len(docs))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, d := range docs {
		fmt.Fprintf(tw, "  %d\t%s\t%s\t%d bytes\n", d.ID, d.Type, d.Filename, d.Size)
	}
	tw.Flush()
}

func (a *app) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the token in the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("VEHICLECTL_PASSWORD")
			}
			if email == "" || password == "" {
				return fmt.Errorf("--email and --password (or VEHICLECTL_PASSWORD) are required")
			}
			user, err := a.client.Login(cmd.Context(), email, password)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}

			a.cfg.Token = a.client.Token()
			if err := config.SaveClient(a.cfgPath, a.cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			a.logger.Debug("token stored", "path", a.cfgPath)
			fmt.Fprintf(a.out, "Logged in as %s (%s)\n", user.Name, user.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <vehicle-id>",
		Short: "Print every section of a vehicle record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "vehicle id")
			if err != nil {
				return err
			}
			s, err := a.session(cmd.Context(), id)
			if err != nil {
				return err
			}

			agg := s.Aggregate()
			caps := s.Capabilities()
			for _, sec := range editor.Sections() {
				if sec == editor.SectionDocuments {
					continue
				}
				printSection(a.out, agg, sec)
				if !caps[sec] {
					fmt.Fprintln(a.out, "  (read only)")
				}
			}
			printDocuments(a.out, agg.Documents)
			fmt.Fprintf(a.out, "== Images (%d)\n", len(agg.Images))
			return nil
		},
	}
}

func (a *app) editCmd() *cobra.Command {
	var sectionName string
	var sets []string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "edit <vehicle-id> --section <name> --set field=value ...",
		Short: "Edit one section and save it",
		Long: `Edits the fields of one section and saves them through that section's
endpoint. Totals are recomputed after every change. With --dry-run the
result is printed and discarded.

Sections: vehicle, shipping, purchase, financials, sales.
Use other_expenses.<name>=<amount> to set one named expense and an empty
value or "null" to clear a field.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "vehicle id")
			if err != nil {
				return err
			}
			sec, err := editor.ParseSection(sectionName)
			if err != nil {
				return err
			}
			if sec == editor.SectionDocuments {
				return fmt.Errorf("documents are edited with upload-doc and delete-doc")
			}
			if len(sets) == 0 {
				return fmt.Errorf("nothing to change, add at least one --set field=value")
			}
			assignments := make([]Assignment, 0, len(sets))
			for _, raw := range sets {
				as, err := ParseAssignment(raw)
				if err != nil {
					return err
				}
				assignments = append(assignments, as)
			}

			ctx := cmd.Context()
			s, err := a.session(ctx, id)
			if err != nil {
				return err
			}
			s.JumpTo(int(sec))
			if err := s.BeginEdit(); err != nil {
				return err
			}
			for _, as := range assignments {
				if err := s.Update(sec, as.Field, as.Value); err != nil {
					s.Cancel()
					return err
				}
			}

			if dryRun {
				printSection(a.out, s.Aggregate(), sec)
				s.Cancel()
				fmt.Fprintln(a.out, "Dry run, nothing was saved.")
				return nil
			}
			if err := s.Save(ctx); err != nil {
				return err
			}
			printSection(a.out, s.Aggregate(), sec)
			return nil
		},
	}
	cmd.Flags().StringVarP(&sectionName, "section", "s", "", "section to edit")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "field=value, repeatable")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the result without saving")
	cmd.MarkFlagRequired("section")
	return cmd
}

func (a *app) setPrimaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-primary <vehicle-id> <image-id>",
		Short: "Make an image the vehicle's primary image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "vehicle id")
			if err != nil {
				return err
			}
			imageID, err := parseID(args[1], "image id")
			if err != nil {
				return err
			}
			s, err := a.session(cmd.Context(), id)
			if err != nil {
				return err
			}
			if err := s.SetPrimaryImage(cmd.Context(), imageID); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Image %d is now primary\n", imageID)
			return nil
		},
	}
}

func (a *app) uploadDocCmd() *cobra.Command {
	var docType string
	cmd := &cobra.Command{
		Use:   "upload-doc <vehicle-id> <file>",
		Short: "Attach a document to a vehicle",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "vehicle id")
			if err != nil {
				return err
			}
			content, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			s, err := a.session(ctx, id)
			if err != nil {
				return err
			}
			s.JumpTo(int(editor.SectionDocuments))
			if err := s.BeginEdit(); err != nil {
				return err
			}
			defer s.Done()

			doc, err := s.UploadDocument(ctx, editor.FileUpload{
				Filename: filepath.Base(args[1]),
				Type:     models.DocumentType(docType),
				Content:  content,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Uploaded %s as document %d (%s)\n", doc.Filename, doc.ID, doc.Type)
			return nil
		},
	}
	cmd.Flags().StringVar(&docType, "type", string(models.DocumentOther),
		"invoice, bill_of_lading, export_certificate, auction_sheet, customs_release or other")
	return cmd
}

func (a *app) deleteDocCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-doc <vehicle-id> <document-id>",
		Short: "Delete a document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "vehicle id")
			if err != nil {
				return err
			}
			docID, err := parseID(args[1], "document id")
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			s, err := a.session(ctx, id)
			if err != nil {
				return err
			}
			s.JumpTo(int(editor.SectionDocuments))
			if err := s.BeginEdit(); err != nil {
				return err
			}
			defer s.Done()

			if err := s.DeleteDocument(ctx, docID); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted document %d\n", docID)
			return nil
		},
	}
}

func (a *app) imagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "images <vehicle-id>",
		Short: "List images with short-lived links, primary first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "vehicle id")
			if err != nil {
				return err
			}
			s, err := a.session(cmd.Context(), id)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tORDER\tPRIMARY\tFILE\tURL")
			for _, iu := range s.ResolveImageURLs(cmd.Context()) {
				primary := ""
				if iu.Image.IsPrimary {
					primary = "yes"
				}
				fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n", iu.Image.ID, iu.Image.DisplayOrder, primary, iu.Image.Filename, iu.URL)
			}
			return tw.Flush()
		},
	}
}
