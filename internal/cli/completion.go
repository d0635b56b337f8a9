package cli

import (
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/bpcgraph/pkg/ops"
	"github.com/matzehuels/bpcgraph/pkg/pipeline"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	generators := map[string]func(cmd *cobra.Command) error{
		"bash":       func(cmd *cobra.Command) error { return cmd.Root().GenBashCompletionV2(cmd.OutOrStdout(), true) },
		"zsh":        func(cmd *cobra.Command) error { return cmd.Root().GenZshCompletion(cmd.OutOrStdout()) },
		"fish":       func(cmd *cobra.Command) error { return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true) },
		"powershell": func(cmd *cobra.Command) error { return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout()) },
	}
	shells := []string{"bash", "zsh", "fish", "powershell"}

	return &cobra.Command{
		Use:   "completion [" + strings.Join(shells, "|") + "]",
		Short: "Generate shell completion scripts",
		Long: `Generate a shell completion script for bpcgraph.

Besides commands and flags, the scripts complete operation kinds, network
modes, output formats and cache backends.

  bash:       source <(bpcgraph completion bash)
  zsh:        bpcgraph completion zsh > "${fpath[1]}/_bpcgraph"
  fish:       bpcgraph completion fish > ~/.config/fish/completions/bpcgraph.fish
  powershell: bpcgraph completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             shells,
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return generators[args[0]](cmd)
		},
	}
}

// registerCompletions attaches value completions to the enumerated flags of
// every subcommand of root.
func registerCompletions(root *cobra.Command) {
	var kinds []string
	for _, k := range ops.Kinds {
		kinds = append(kinds, string(k))
	}
	var formats []string
	for f := range pipeline.ValidFormats {
		formats = append(formats, f)
	}
	slices.Sort(formats)

	values := map[string][]string{
		"operations":   kinds,
		"network-mode": {"labels", "partition"},
		"format":       formats,
		"cache":        {backendFile, backendRedis, backendMongo, backendNone},
		"kind":         cacheKinds,
		"log-format":   {logFormatText, logFormatJSON, logFormatLogfmt},
	}
	listFlags := map[string]bool{"operations": true, "format": true}

	_ = root.RegisterFlagCompletionFunc("log-format", fixedValues(values["log-format"], false))
	walkCommands(root, func(cmd *cobra.Command) {
		for name, vals := range values {
			if cmd.Flags().Lookup(name) == nil || name == "log-format" {
				continue
			}
			_ = cmd.RegisterFlagCompletionFunc(name, fixedValues(vals, listFlags[name]))
		}
		if cmd.Name() == "transform" || cmd.Name() == "layout" || cmd.Name() == "render" {
			cmd.ValidArgsFunction = jsonFiles
		}
	})
}

// fixedValues completes from vals. For comma-separated list flags only the
// part after the last comma is completed.
func fixedValues(vals []string, list bool) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if !list {
			return vals, cobra.ShellCompDirectiveNoFileComp
		}
		prefix := ""
		if i := strings.LastIndex(toComplete, ","); i >= 0 {
			prefix = toComplete[:i+1]
		}
		out := make([]string, 0, len(vals))
		for _, v := range vals {
			out = append(out, prefix+v)
		}
		return out, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
	}
}

func jsonFiles(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return []string{"json"}, cobra.ShellCompDirectiveFilterFileExt
}

func walkCommands(cmd *cobra.Command, fn func(*cobra.Command)) {
	fn(cmd)
	for _, sub := range cmd.Commands() {
		walkCommands(sub, fn)
	}
}
