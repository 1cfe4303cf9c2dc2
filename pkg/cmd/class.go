package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yeisme/classmedia/pkg/configs"
	ctxPkg "github.com/yeisme/classmedia/pkg/context"
	"github.com/yeisme/classmedia/pkg/internal/model"
	"github.com/yeisme/classmedia/pkg/internal/service"
	"github.com/yeisme/classmedia/pkg/internal/storage"
	"github.com/yeisme/classmedia/pkg/internal/types"
	"github.com/yeisme/classmedia/pkg/rule"
)

var (
	classOwner   string
	classPlan    string
	classPayedOn string
	classFix     bool

	classCmd = &cobra.Command{
		Use:   "class",
		Short: "inspect and seed class records",
	}

	classAddCmd = &cobra.Command{
		Use:   "add [id]",
		Short: "create a class record, for development setups",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &types.CreateClassRequest{Owner: classOwner, PlanID: classPlan}
			if len(args) == 1 {
				req.ID = args[0]
			}

			if classPayedOn != "" {
				t, err := time.Parse(time.DateOnly, classPayedOn)
				if err != nil {
					return fmt.Errorf("--payed-on: %w", err)
				}

				req.PayedOn = &t
			}

			if err := rule.ValidateStruct(req); err != nil {
				return err
			}

			return withClassService(cmd.Context(), func(ctx context.Context, svc *service.ClassService) error {
				c, err := svc.Create(ctx, req)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "created class %s (owner %s, plan %s)\n", c.ID, c.Owner, c.PlanID)

				return nil
			})
		},
	}

	classShowCmd = &cobra.Command{
		Use:   "show <id>",
		Short: "print quota usage and check it against the stored files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClassService(cmd.Context(), func(ctx context.Context, svc *service.ClassService) error {
				info, err := svc.Storage(ctx, args[0])
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "class:     %s\n", info.ClassID)
				fmt.Fprintf(out, "plan:      %s (active: %t)\n", info.PlanID, info.PlanActive)
				fmt.Fprintf(out, "quota:     %d\n", info.Quota)
				fmt.Fprintf(out, "used:      %d\n", info.Used)
				fmt.Fprintf(out, "remaining: %d\n", info.Remaining)

				before, actual, err := svc.Reconcile(ctx, args[0], classFix)
				if err != nil {
					return err
				}

				switch {
				case before == actual:
					fmt.Fprintln(out, "ledger matches stored files")
				case classFix:
					fmt.Fprintf(out, "ledger corrected: %d -> %d\n", before, actual)
				default:
					fmt.Fprintf(out, "ledger drift: recorded %d, files sum to %d (rerun with --fix)\n", before, actual)
				}

				return nil
			})
		},
	}
)

// withClassService 打开存储并迁移表结构后执行 fn.
func withClassService(ctx context.Context, fn func(context.Context, *service.ClassService) error) error {
	mgr, err := storage.Open(ctx, configs.GetConfig())
	if err != nil {
		return err
	}
	defer mgr.Close()

	if err := model.Migrate(ctx, mgr.GetDBClient().GetDB()); err != nil {
		return err
	}

	ctx = ctxPkg.WithStorageManager(ctx, mgr)

	return fn(ctx, service.NewClassService(service.FromContext(ctx)))
}

func registerClassCommands() {
	classAddCmd.Flags().StringVar(&classOwner, "owner", "", "owner user id")
	classAddCmd.Flags().StringVar(&classPlan, "plan", configs.PlanFree, "plan id")
	classAddCmd.Flags().StringVar(&classPayedOn, "payed-on", "", "payment date, YYYY-MM-DD")
	_ = classAddCmd.MarkFlagRequired("owner")

	classShowCmd.Flags().BoolVar(&classFix, "fix", false, "rewrite storage_used when it drifts from the files")

	classCmd.AddCommand(classAddCmd, classShowCmd)
	rootCmd.AddCommand(classCmd)
}
