package main

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/freekieb7/casetrack/internal/cases"
	"github.com/freekieb7/casetrack/internal/identity"
	"github.com/freekieb7/casetrack/internal/storage"
	"github.com/freekieb7/casetrack/internal/user"
	"github.com/freekieb7/casetrack/internal/util"

	"github.com/spf13/cobra"
)

var seedAttachment bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the store with sample users, case managers and cases",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSeed(cmd.Context())
	},
}

func init() {
	seedCmd.Flags().BoolVar(&seedAttachment, "with-attachment", false, "also upload a small text attachment through the configured storage")
}

func runSeed(ctx context.Context) error {
	svc, err := newServices(ctx)
	if err != nil {
		return err
	}
	defer svc.Close(context.Background())

	uploader, err := storage.NewFactory(svc.logger, svc.cfg.Storage).CreateUploader(ctx)
	if err != nil {
		return fmt.Errorf("failed to create storage: %w", err)
	}
	caseManager, err := svc.newCaseManager(ctx, uploader)
	if err != nil {
		return err
	}

	users := []user.AddUserParams{
		{Name: "Admin User", Email: "admin@example.com", Role: util.Some(user.RoleAdmin)},
		{Name: "John Doe", Email: "john@example.com"},
	}
	for _, params := range users {
		if svc.directory.GetUserByEmail(params.Email).IsSet {
			fmt.Printf("Skipped existing user: %s\n", params.Email)
			continue
		}
		created, err := svc.directory.AddUser(ctx, params)
		if err != nil {
			return fmt.Errorf("failed to create user %s: %w", params.Email, err)
		}
		fmt.Printf("Created user: %s (%s, %s)\n", created.Name, created.Email, created.Role)
	}

	managers := []user.AddCaseManagerParams{
		{Name: "Jane Smith", Email: "jane@example.com"},
		{Name: "Bob Wilson", Email: "bob@example.com"},
	}
	for _, params := range managers {
		if slices.ContainsFunc(svc.directory.ListCaseManagers(), func(m user.CaseManager) bool {
			return strings.EqualFold(m.Email, params.Email)
		}) {
			fmt.Printf("Skipped existing case manager: %s\n", params.Email)
			continue
		}
		created, err := svc.directory.AddCaseManager(ctx, params)
		if err != nil {
			return fmt.Errorf("failed to create case manager %s: %w", params.Email, err)
		}
		fmt.Printf("Created case manager: %s (%s)\n", created.Name, created.Email)
	}

	actor := util.Some(identity.Identity{DisplayName: "Admin User", Email: "admin@example.com"})
	samples := []struct {
		params cases.CreateCaseParams
		notes  []string
		status cases.Status
	}{
		{
			params: cases.CreateCaseParams{
				Title:       "Printer on the second floor jams",
				Description: "<p>Paper jams on every duplex print job.</p>",
				Priority:    cases.PriorityMedium,
				CaseManager: util.Some("jane@example.com"),
			},
			notes:  []string{"Called the vendor, technician visits Thursday."},
			status: cases.StatusInProgress,
		},
		{
			params: cases.CreateCaseParams{
				Title:       "VPN drops every hour",
				Description: "<p>Several users report disconnects.</p>",
				Priority:    cases.PriorityHigh,
				CaseManager: util.Some("bob@example.com"),
			},
			status: cases.StatusOpen,
		},
		{
			params: cases.CreateCaseParams{
				Title:    "Request for a second monitor",
				Priority: cases.PriorityLow,
			},
			notes:  []string{"Approved by team lead.", "Delivered."},
			status: cases.StatusClosed,
		},
	}

	for i, sample := range samples {
		created, err := caseManager.CreateCase(ctx, actor, sample.params)
		if err != nil {
			return fmt.Errorf("failed to create case %q: %w", sample.params.Title, err)
		}
		for _, content := range sample.notes {
			if _, err := caseManager.AddNote(ctx, actor, created.ID, content); err != nil {
				return fmt.Errorf("failed to add note to %q: %w", created.Title, err)
			}
		}
		if sample.status != cases.StatusOpen {
			if _, err := caseManager.SetStatus(ctx, actor, created.ID, sample.status); err != nil {
				return fmt.Errorf("failed to set status of %q: %w", created.Title, err)
			}
		}
		fmt.Printf("Created case: %s (%s, %d notes)\n", created.Title, sample.status, len(sample.notes))

		if seedAttachment && i == 0 {
			body := "Vendor ticket: 48213\n"
			attachment, err := caseManager.UploadAttachment(ctx, actor, created.ID, storage.File{
				Name: "vendor-ticket.txt",
				Type: "text/plain",
				Size: int64(len(body)),
				Body: strings.NewReader(body),
			})
			if err != nil {
				return fmt.Errorf("failed to upload sample attachment: %w", err)
			}
			if a, ok := attachment.Get(); ok {
				fmt.Printf("Uploaded attachment: %s -> %s\n", a.Name, a.DownloadURL)
			}
		}
	}

	fmt.Println("\nSample data created successfully!")
	fmt.Println("Admin user: admin@example.com")
	fmt.Println("Grant more admins with: casetrack admin grant <email>")
	return nil
}
