package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/suparena/modelstore"
	"github.com/suparena/modelstore/config"
	"github.com/suparena/modelstore/datastore"
	"github.com/suparena/modelstore/registry"
	"github.com/suparena/modelstore/storagemodels"
)

// rootOptions holds the global flags.
type rootOptions struct {
	ConfigPath string
	Verbose    bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "modelstore",
		Short: "Inspect the databases configured for modelstore",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.Verbose {
				log.SetLevel(log.DebugLevel)
			}
		},
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "",
		"config file (default $"+config.EnvConfigPath+" or ./modelstore.yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(newVersionCommand())
	cmd.AddCommand(newFieldsCommand(opts))
	cmd.AddCommand(newEnumCommand(opts))
	cmd.AddCommand(newCountCommand(opts))
	return cmd
}

func (o *rootOptions) load() (*config.Config, error) {
	if o.ConfigPath == "" {
		return config.LoadFromEnv()
	}
	return config.Load(config.ResolvePath(o.ConfigPath))
}

// introspector opens group and checks that it can describe its tables.
func (o *rootOptions) introspector(ctx context.Context, group string) (datastore.Introspector, func(), error) {
	cfg, err := o.load()
	if err != nil {
		return nil, nil, err
	}
	conns := modelstore.NewConnections(cfg)
	conn, err := conns.Get(ctx, group)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() { _ = conns.Close() }
	in, ok := conn.(datastore.Introspector)
	if !ok {
		closeFn()
		return nil, nil, fmt.Errorf("group %s (%s) cannot describe tables", group, conn.Dialect().Name)
	}
	return in, closeFn, nil
}

func newVersionCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := modelstore.GetVersionInfo()
			out := cmd.OutOrStdout()
			switch format {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			case "yaml":
				return yaml.NewEncoder(out).Encode(info)
			case "text":
				fmt.Fprintf(out, "ModelStore version %s\n", info.Version)
				fmt.Fprintf(out, "Git commit: %s\n", info.GitCommit)
				fmt.Fprintf(out, "Build date: %s\n", info.BuildDate)
				fmt.Fprintf(out, "Go version: %s\n", info.GoVersion)
				return nil
			}
			return fmt.Errorf("invalid format %q: must be one of text, json, yaml", format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "output format (text|json|yaml)")
	return cmd
}

func newFieldsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fields <group> <table>",
		Short: "List the columns of a table with their declared types",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			in, closeFn, err := opts.introspector(ctx, args[0])
			if err != nil {
				return err
			}
			defer closeFn()

			names, err := in.FieldNames(ctx, args[1])
			if err != nil {
				return err
			}
			if len(names) == 0 {
				return fmt.Errorf("table %s has no fields in group %s", args[1], args[0])
			}
			for _, name := range names {
				desc, err := in.DescribeField(ctx, args[1], name)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, desc)
			}
			return nil
		},
	}
}

func newEnumCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "enum <group> <table> <field>",
		Short: "List the allowed values of an enum column",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			in, closeFn, err := opts.introspector(ctx, args[0])
			if err != nil {
				return err
			}
			defer closeFn()

			values, err := datastore.EnumValues(ctx, in, args[1], args[2])
			if err != nil {
				return err
			}
			if values == nil {
				return fmt.Errorf("%s.%s is not an enum column", args[1], args[2])
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(values, "\n"))
			return nil
		},
	}
}

func newCountCommand(opts *rootOptions) *cobra.Command {
	var where string
	cmd := &cobra.Command{
		Use:   "count <group> <table>",
		Short: "Count the rows or items of a table",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			reg := registry.New()
			desc, err := reg.Register(registry.Descriptor{Name: args[1], Table: args[1], Database: args[0]})
			if err != nil {
				return err
			}
			store := modelstore.NewStore(reg, modelstore.NewConnections(cfg, modelstore.WithRegistry(reg)))
			defer store.Close()

			m, err := store.Model(desc.Name)
			if err != nil {
				return err
			}
			n, err := m.Count(ctx, &storagemodels.Options{Where: where})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
	cmd.Flags().StringVar(&where, "where", "", "condition without placeholders")
	return cmd
}
