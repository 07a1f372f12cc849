package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/forumhq/forum-api/internal/domain/audit"
	"github.com/forumhq/forum-api/internal/domain/role"
	"github.com/forumhq/forum-api/internal/domain/staff"
	"github.com/forumhq/forum-api/internal/domain/user"
	"github.com/forumhq/forum-api/internal/pkg/jwt"
	"github.com/forumhq/forum-api/internal/store/postgres"
)

// operatorStore is what the operator commands need from storage
type operatorStore interface {
	user.Reader
	audit.Repository
	CreateActor(ctx context.Context, a *user.Actor) error
	Staff() staff.Store
	Migrate(ctx context.Context) error
}

type postgresOperator struct {
	*postgres.Store
	db *sqlx.DB
}

func (p postgresOperator) Migrate(ctx context.Context) error {
	return postgres.Migrate(ctx, p.db)
}

// opener connects to storage; the returned func releases it
type opener func(ctx context.Context) (operatorStore, func(), error)

func newRootCmd(open opener, tokens *jwt.Service) *cobra.Command {
	root := &cobra.Command{
		Use:          "forumctl",
		Short:        "Operator commands for the forum moderation API",
		SilenceUsage: true,
	}

	withStore := func(fn func(cmd *cobra.Command, args []string, store operatorStore) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			store, closeFn, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			return fn(cmd, args, store)
		}
	}

	root.AddCommand(
		migrateCmd(withStore),
		addUserCmd(withStore),
		bootstrapCmd(withStore),
		rolesCmd(),
		auditCmd(withStore),
		issueTokenCmd(withStore, tokens),
	)
	return root
}

type storeRunner func(fn func(cmd *cobra.Command, args []string, store operatorStore) error) func(*cobra.Command, []string) error

func migrateCmd(withStore storeRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Args:  cobra.NoArgs,
		RunE: withStore(func(cmd *cobra.Command, _ []string, store operatorStore) error {
			if err := store.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return nil
		}),
	}
}

func addUserCmd(withStore storeRunner) *cobra.Command {
	var roleName string
	cmd := &cobra.Command{
		Use:   "add-user <username>",
		Short: "Create an account below management",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(cmd *cobra.Command, args []string, store operatorStore) error {
			r, err := role.Parse(roleName)
			if err != nil {
				return err
			}
			if r == role.Top() {
				return fmt.Errorf("use bootstrap-management to seat %s", r)
			}
			username := strings.TrimSpace(args[0])
			if username == "" {
				return fmt.Errorf("username is required")
			}

			now := time.Now().UTC()
			a := &user.Actor{ID: uuid.New(), Username: username, Role: r, CreatedAt: now, UpdatedAt: now}
			if err := store.CreateActor(cmd.Context(), a); err != nil {
				return fmt.Errorf("create actor: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", a.ID, a.Username, a.Role)
			return nil
		}),
	}
	cmd.Flags().StringVar(&roleName, "role", role.User.String(), "initial role")
	return cmd
}

func bootstrapCmd(withStore storeRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap-management <user-id>",
		Short: "Give an existing account the management role",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(cmd *cobra.Command, args []string, store operatorStore) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid user id: %w", err)
			}
			a, err := staff.Bootstrap(cmd.Context(), store.Staff(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s -> %s\n", a.Target.Username, a.OldRole, a.NewRole)
			return nil
		}),
	}
}

func rolesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roles",
		Short: "Print the role catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ROLE\tRANK\tSTAFF")
			for _, r := range role.All() {
				fmt.Fprintf(tw, "%s\t%d\t%t\n", r, r.Rank(), r.IsStaff())
			}
			return tw.Flush()
		},
	}
}

// auditCmd reads the trail directly, without the moderator gate
func auditCmd(withStore storeRunner) *cobra.Command {
	var (
		kind   string
		actor  string
		limit  int
		offset int
	)
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Print audit entries, newest first",
		Args:  cobra.NoArgs,
		RunE: withStore(func(cmd *cobra.Command, _ []string, store operatorStore) error {
			filter := audit.Filter{Limit: limit, Offset: offset}
			if kind != "" {
				k, err := audit.ParseKind(kind)
				if err != nil {
					return err
				}
				filter.Kind = &k
			}
			if actor != "" {
				id, err := uuid.Parse(actor)
				if err != nil {
					return fmt.Errorf("invalid actor id: %w", err)
				}
				filter.ActorID = &id
			}

			entries, total, err := store.ListAudit(cmd.Context(), filter.Normalize())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tKIND\tACTOR\tTARGET\tDETAIL")
			for _, e := range entries {
				actorText := "-"
				if e.ActorID.Valid {
					actorText = e.ActorID.UUID.String()
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s:%s\t%s\n",
					e.CreatedAt.Format(time.RFC3339), e.Kind, actorText, e.TargetType, e.TargetID, e.Detail)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d entries\n", len(entries), total)
			return nil
		}),
	}
	cmd.Flags().StringVar(&kind, "kind", "", "only entries of this kind")
	cmd.Flags().StringVar(&actor, "actor", "", "only entries by this actor id")
	cmd.Flags().IntVar(&limit, "limit", audit.DefaultLimit, "page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "entries to skip")
	return cmd
}

func issueTokenCmd(withStore storeRunner, tokens *jwt.Service) *cobra.Command {
	return &cobra.Command{
		Use:   "issue-token <user-id>",
		Short: "Print an access token for an existing account",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(cmd *cobra.Command, args []string, store operatorStore) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid user id: %w", err)
			}
			a, err := user.Fetch(cmd.Context(), store, id)
			if err != nil {
				return err
			}
			token, err := tokens.GenerateAccessToken(a.ID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		}),
	}
}
