package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"coderd/internal/engine"
	"coderd/internal/uiprompt"
)

type runFlags struct {
	model     string
	threads   int
	maxTokens int
	preset    string
}

func (f *runFlags) register(cmd *cobra.Command, defaultMax int) {
	cmd.Flags().StringVarP(&f.model, "model", "m", "", "Model id or path (defaults to model.path from the config)")
	cmd.Flags().IntVarP(&f.threads, "threads", "t", 0, "CPU threads (0 = recommended)")
	cmd.Flags().IntVarP(&f.maxTokens, "max-tokens", "n", defaultMax, "Maximum new tokens (0 = default)")
	cmd.Flags().StringVar(&f.preset, "system-preset", "", "System prompt preset: short|long")
}

// load builds an engine with the model selected by flags or config. The
// caller must Release it.
func (f *runFlags) load(a *app) (*backend, error) {
	cfg := a.cfg
	if f.model != "" {
		cfg.Model.Path = f.model
	}
	if f.threads > 0 {
		cfg.Model.Threads = f.threads
	}
	if f.preset != "" {
		cfg.Engine.SystemPreset = f.preset
		cfg.Engine.SystemPrompt = ""
	}
	if cfg.Model.Path == "" {
		return nil, fmt.Errorf("no model: pass --model or set model.path in the config")
	}
	b := newBackend(cfg, a.log)
	if err := b.initModel(cfg.Model.Path, cfg.Model.Threads); err != nil {
		return nil, err
	}
	return b, nil
}

func newGenerateCmd(a *app) *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "generate [prompt]",
		Short: "Generate once from a prompt (reads stdin when no prompt or \"-\" is given)",
		Example: "  coderd generate -m coder.gguf \"Build a pricing table\"\n" +
			"  echo \"Build a login form\" | coderd generate -m coder.gguf",
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			b, err := f.load(a)
			if err != nil {
				return err
			}
			defer b.Release()
			text := b.Generate(prompt, f.maxTokens)
			fmt.Fprintln(cmd.OutOrStdout(), text)
			if engine.IsError(text) {
				return exitError{code: 1}
			}
			return nil
		},
	}
	f.register(cmd, 0)
	return cmd
}

func newUICmd(a *app) *cobra.Command {
	var (
		f       runFlags
		minimal bool
		out     string
	)
	cmd := &cobra.Command{
		Use:   "ui [agent text]",
		Short: "Turn agent output into a standalone HTML page",
		Example: "  coderd ui -m coder.gguf \"Your bill of 1,240 is due on 5 Nov\" -o bill.html\n" +
			"  some-agent | coderd ui -m coder.gguf --minimal",
		RunE: func(cmd *cobra.Command, args []string) error {
			agentText, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			b, err := f.load(a)
			if err != nil {
				return err
			}
			defer b.Release()
			raw := b.Generate(uiprompt.BuildPrompt(agentText, minimal), f.maxTokens)
			if uiprompt.IsErrorOutput(raw) {
				fmt.Fprintln(cmd.ErrOrStderr(), raw)
				return exitError{code: 1}
			}
			html := uiprompt.SanitizeHTML(raw)
			if out == "" {
				fmt.Fprintln(cmd.OutOrStdout(), html)
				return nil
			}
			if err := os.WriteFile(out, []byte(html), 0o644); err != nil {
				return err
			}
			a.log.Info().Str("file", out).Int("bytes", len(html)).Msg("page written")
			return nil
		},
	}
	f.register(cmd, uiprompt.MaxTokens)
	cmd.Flags().BoolVar(&minimal, "minimal", false, "Use the short prompt template")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the page to this file instead of stdout")
	return cmd
}

// readInput joins args, or reads all of in when args are empty or "-".
func readInput(in io.Reader, args []string) (string, error) {
	if len(args) > 0 && !(len(args) == 1 && args[0] == "-") {
		return strings.Join(args, " "), nil
	}
	b, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimRight(string(b), "\n"), nil
}

