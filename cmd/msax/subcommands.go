package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/3cpo-dev/msax/internal/config"
	"github.com/3cpo-dev/msax/internal/telemetry"
	"github.com/3cpo-dev/msax/pkg/msa"
	"github.com/3cpo-dev/msax/pkg/msa/order"
)

// Resolve CLI config and task context, then build the API client.
func resolveClient(cmd *cobra.Command) (*msa.Client, *msa.TaskContext, config.Config, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, config.Config{}, err
	}
	telemetry.InitGlobal(cfg.Telemetry.Enabled, cfg.Telemetry.OTLPEndpoint)

	vars, err := resolveTaskContext(cmd)
	if err != nil {
		return nil, nil, cfg, err
	}
	if vars == nil {
		return nil, nil, cfg, fmt.Errorf("task context required: pass --ctx or set MSA_TOKEN")
	}
	host, port := cfg.APIHostPort()
	cli, err := msa.NewWithBase(vars, host, port)
	if err != nil {
		return nil, nil, cfg, err
	}
	return cli, vars, cfg, nil
}

// Resolve the task context from --ctx, which takes a JSON literal or a file
// path, with the MSA_TOKEN environment variable as a development fallback.
// Returns nil without error when no context was given at all.
func resolveTaskContext(cmd *cobra.Command) (*msa.TaskContext, error) {
	raw, _ := cmd.Flags().GetString("ctx")
	switch {
	case strings.HasPrefix(strings.TrimSpace(raw), "{"):
		return msa.ParseTaskContext(raw)
	case raw != "":
		return msa.LoadTaskContext(raw)
	}
	if tok := os.Getenv("MSA_TOKEN"); tok != "" {
		return msa.NewTaskContext(msa.Params{msa.KeyToken: tok}), nil
	}
	return nil, nil
}

// Parse repeated key=value flags into params.
func parseParams(pairs []string) (msa.Params, error) {
	params := msa.Params{}
	for _, pair := range pairs {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid --param %q, want key=value", pair)
		}
		params[parts[0]] = parts[1]
	}
	return params, nil
}

// succeed ends the task process with an ENDED envelope carrying the task
// context plus any extra result entries. Never returns.
func succeed(vars *msa.TaskContext, comment string, extras msa.Params) {
	params := vars.Params()
	for k, v := range extras {
		params[k] = v
	}
	_ = telemetry.Shutdown()
	msa.ReportSuccess(comment, params)
}

// fail ends the task process for a transport or usage error. Never returns.
func fail(vars *msa.TaskContext, err error) {
	_ = telemetry.Shutdown()
	msa.ReportFailure(err.Error(), vars.Params())
}

// finish ends the task process from an API result: failed results report
// FAILED with the remote comment, successes report ENDED. Never returns.
func finish(cfg config.Config, vars *msa.TaskContext, res *msa.Result, successComment string) {
	appendProcessLog(cfg, vars, res, successComment)
	if !res.OK {
		comment := fmt.Sprintf("call failed with status %d", res.StatusCode)
		if env, err := res.Envelope(); err == nil && env.Comment != "" {
			comment = env.Comment
		}
		_ = telemetry.Shutdown()
		msa.ReportFailure(comment, vars.Params())
	}
	succeed(vars, successComment, nil)
}

// appendProcessLog best-effort records the task outcome in the orchestrator
// process log when the config names a directory.
func appendProcessLog(cfg config.Config, vars *msa.TaskContext, res *msa.Result, comment string) {
	id := vars.Get(msa.KeyProcessInstanceID)
	if cfg.ProcessLogs == "" || id == "" {
		return
	}
	line := comment
	if !res.OK {
		line = fmt.Sprintf("call failed with status %d", res.StatusCode)
	}
	if err := (msa.ProcessLog{Dir: cfg.ProcessLogs}).Append(id, line); err != nil {
		log.Debug().Err(err).Msg("process log append failed")
	}
}

// Obtain an API token
func newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Obtain a bearer token with username/password credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, _ := cmd.Flags().GetString("user")
			pass, _ := cmd.Flags().GetString("pass")
			cfgPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			host, port := cfg.APIHostPort()
			token, err := msa.Login(cmd.Context(), host, port, user, pass)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().String("user", "", "API username")
	cmd.Flags().String("pass", "", "API password")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("pass")
	return cmd
}

// Execute an order command as an orchestrated task
func newExecuteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "execute",
		Short: "Run an order command on a device and report the outcome",
		RunE: func(cmd *cobra.Command, args []string) error {
			device, _ := cmd.Flags().GetInt("device")
			command, _ := cmd.Flags().GetString("command")
			pairs, _ := cmd.Flags().GetStringSlice("param")
			timeout, _ := cmd.Flags().GetDuration("timeout")

			cli, vars, cfg, err := resolveClient(cmd)
			if err != nil {
				return err
			}
			params, err := parseParams(pairs)
			if err != nil {
				return err
			}
			res, err := order.New(cli, device).Execute(cmd.Context(), command, params, timeout)
			if err != nil {
				fail(vars, err)
			}
			finish(cfg, vars, res, fmt.Sprintf("command %s executed on device %d", command, device))
			return nil
		},
	}
	cmd.Flags().Int("device", 0, "device id")
	cmd.Flags().String("command", "", "order command name")
	cmd.Flags().StringSlice("param", nil, "command parameter as key=value (repeatable)")
	cmd.Flags().Duration("timeout", 0, "command timeout (default 300s)")
	_ = cmd.MarkFlagRequired("device")
	_ = cmd.MarkFlagRequired("command")
	return cmd
}

// Synchronize a device as an orchestrated task
func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronize device state into the orchestrator and report the outcome",
		RunE: func(cmd *cobra.Command, args []string) error {
			device, _ := cmd.Flags().GetInt("device")
			timeout, _ := cmd.Flags().GetDuration("timeout")

			cli, vars, cfg, err := resolveClient(cmd)
			if err != nil {
				return err
			}
			res, err := order.New(cli, device).Synchronize(cmd.Context(), timeout)
			if err != nil {
				fail(vars, err)
			}
			finish(cfg, vars, res, fmt.Sprintf("device %d synchronized", device))
			return nil
		},
	}
	cmd.Flags().Int("device", 0, "device id")
	cmd.Flags().Duration("timeout", 0, "command timeout (default 300s)")
	_ = cmd.MarkFlagRequired("device")
	return cmd
}

// Call an order command in a provisioning mode
func newCallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call",
		Short: "Call an order command in a provisioning mode and report the outcome",
		RunE: func(cmd *cobra.Command, args []string) error {
			device, _ := cmd.Flags().GetInt("device")
			command, _ := cmd.Flags().GetString("command")
			mode, _ := cmd.Flags().GetInt("mode")
			pairs, _ := cmd.Flags().GetStringSlice("param")
			timeout, _ := cmd.Flags().GetDuration("timeout")

			cli, vars, cfg, err := resolveClient(cmd)
			if err != nil {
				return err
			}
			params, err := parseParams(pairs)
			if err != nil {
				return err
			}
			res, err := order.New(cli, device).Call(cmd.Context(), command, mode, params, timeout)
			if err != nil {
				fail(vars, err)
			}
			finish(cfg, vars, res, fmt.Sprintf("command %s called on device %d", command, device))
			return nil
		},
	}
	cmd.Flags().Int("device", 0, "device id")
	cmd.Flags().String("command", "", "order command name")
	cmd.Flags().Int("mode", 0, "provisioning mode")
	cmd.Flags().StringSlice("param", nil, "command parameter as key=value (repeatable)")
	cmd.Flags().Duration("timeout", 0, "command timeout (default 300s)")
	_ = cmd.MarkFlagRequired("device")
	_ = cmd.MarkFlagRequired("command")
	return cmd
}

// Inspect device objects
func newObjectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "objects",
		Short: "List device objects; results travel in the outcome new-params",
		RunE: func(cmd *cobra.Command, args []string) error {
			device, _ := cmd.Flags().GetInt("device")
			name, _ := cmd.Flags().GetString("name")
			id, _ := cmd.Flags().GetString("id")

			cli, vars, cfg, err := resolveClient(cmd)
			if err != nil {
				return err
			}
			oc := order.New(cli, device)
			switch {
			case name == "":
				names, err := oc.Objects(cmd.Context())
				if err != nil {
					fail(vars, err)
				}
				log.Info().Strs("objects", names).Int("device", device).Msg("device objects")
				succeed(vars, fmt.Sprintf("retrieved %d objects", len(names)), msa.Params{"objects": names})
			case id == "":
				res, err := oc.ObjectInstances(cmd.Context(), name)
				if err != nil {
					fail(vars, err)
				}
				if !res.OK {
					finish(cfg, vars, res, "")
				}
				succeed(vars, fmt.Sprintf("retrieved %s instances", name), msa.Params{"instances": json.RawMessage(res.Content)})
			default:
				res, err := oc.ObjectDetails(cmd.Context(), name, id)
				if err != nil {
					fail(vars, err)
				}
				if !res.OK {
					finish(cfg, vars, res, "")
				}
				succeed(vars, fmt.Sprintf("retrieved %s %s", name, id), msa.Params{"object": json.RawMessage(res.Content)})
			}
			return nil
		},
	}
	cmd.Flags().Int("device", 0, "device id")
	cmd.Flags().String("name", "", "object name (lists names when omitted)")
	cmd.Flags().String("id", "", "object instance id")
	_ = cmd.MarkFlagRequired("device")
	return cmd
}

// Emit a completion envelope
func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Emit a completion envelope for the current task context",
		RunE: func(cmd *cobra.Command, args []string) error {
			statusStr, _ := cmd.Flags().GetString("status")
			comment, _ := cmd.Flags().GetString("comment")
			pairs, _ := cmd.Flags().GetStringSlice("param")

			vars, err := resolveTaskContext(cmd)
			if err != nil {
				return err
			}
			if vars == nil {
				vars = msa.NewTaskContext(nil)
			}
			extra, err := parseParams(pairs)
			if err != nil {
				return err
			}
			params := vars.Params()
			for k, v := range extra {
				params[k] = v
			}

			status := msa.Status(strings.ToUpper(statusStr))
			switch status {
			case msa.StatusEnded:
				msa.ReportSuccess(comment, params)
			case msa.StatusFailed:
				msa.ReportFailure(comment, params)
			case msa.StatusRunning, msa.StatusWarning, msa.StatusPaused:
				// Non-terminal statuses annotate without ending the task.
				o := msa.Outcome{Status: status, Comment: comment, Params: params}
				return o.Report(os.Stdout, true)
			default:
				return fmt.Errorf("unknown status %q", statusStr)
			}
			return nil
		},
	}
	cmd.Flags().String("status", "ENDED", "envelope status: ENDED, FAILED, RUNNING, WARNING, PAUSED")
	cmd.Flags().String("comment", "", "envelope comment")
	cmd.Flags().StringSlice("param", nil, "extra new-params entry as key=value (repeatable)")
	return cmd
}
