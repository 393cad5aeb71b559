package main

import (
	"fmt"
	"io"
	"os"

	"github.com/chazu/hexablock/pkg/config"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/unixpickle/essentials"
)

var log = config.NamedLogger("hexablock")

// flags holds the persistent flags shared by every command.
type flags struct {
	configPath string
	logLevel   string
	dimension  int
	format     string
	outDir     string
}

func (f *flags) register(pf *pflag.FlagSet) {
	pf.StringVar(&f.configPath, "config", "", "configuration file (default ./"+config.FileName+" when present)")
	pf.StringVar(&f.logLevel, "log-level", "info", "logging level")
	pf.IntVar(&f.dimension, "dimension", 3, "highest mesh dimension, 0 to 3")
	pf.StringVar(&f.format, "format", config.FormatGmsh, "output format: stl, gmsh or json")
	pf.StringVar(&f.outDir, "out", "", "output directory (default: next to the script)")
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:           "hexablock",
		Short:         "block-structured hexahedral mesher",
		Long:          "hexablock evaluates block scripts and meshes their blocks into hexahedra",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	f.register(root.PersistentFlags())

	root.AddCommand(
		generateComputeCmd(f),
		generateCheckCmd(f),
		generateBatchCmd(f),
	)
	return root
}

// loadConfig reads the configuration file and applies explicitly set flags
// over it.
func loadConfig(cmd *cobra.Command, f *flags) (config.Config, error) {
	conf := config.Default()
	path := f.configPath
	if path == "" {
		if _, err := os.Stat(config.FileName); err == nil {
			path = config.FileName
		}
	}
	if path != "" {
		var err error
		if conf, err = config.Load(path); err != nil {
			return config.Config{}, err
		}
	}

	changed := cmd.Flags().Changed
	if changed("log-level") {
		conf.Log.Level = f.logLevel
	}
	if changed("dimension") {
		conf.Mesher.Dimension = f.dimension
	}
	if changed("format") {
		conf.Output.Format = f.format
	}
	if changed("out") {
		conf.Output.Dir = f.outDir
	}
	if err := conf.Check(); err != nil {
		return config.Config{}, errors.Wrap(err, "flags")
	}
	if err := config.SetupLogging(conf.Log.Level, nil); err != nil {
		return config.Config{}, err
	}
	return conf, nil
}

func generateComputeCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "compute <script>",
		Short: "mesh a block script",
		Long:  "evaluates a block script, meshes it up to the configured dimension and writes the mesh",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			res, err := newPipeline(conf, log).Compute(args[0])
			if res != nil {
				printResult(cmd.OutOrStdout(), res)
			}
			if err != nil {
				return err
			}
			if !res.OK() {
				return fmt.Errorf("%s: %d errors", args[0], len(res.Errors))
			}
			return nil
		},
	}
}

func generateCheckCmd(f *flags) *cobra.Command {
	var save string
	cmd := &cobra.Command{
		Use:   "check <script>",
		Short: "evaluate and validate a block script",
		Long:  "evaluates and validates a block script, optionally saving the document as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			res, err := newPipeline(conf, log).Check(args[0])
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), res)
			if !res.OK() {
				return fmt.Errorf("%s: %d errors", args[0], len(res.Errors))
			}
			if save != "" {
				return saveDocument(res, save)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&save, "save", "", "write the evaluated document as JSON to this path")
	return cmd
}

func saveDocument(res *Result, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "save document")
	}
	if err := res.Document.WriteJSON(out); err != nil {
		out.Close()
		return err
	}
	return errors.Wrap(out.Close(), "save document")
}

func generateBatchCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "batch <script>...",
		Short: "mesh several block scripts concurrently",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			p := newPipeline(conf, log)
			results := make([]*Result, len(args))
			errs := make([]error, len(args))
			essentials.ConcurrentMap(0, len(args), func(i int) {
				results[i], errs[i] = p.Compute(args[i])
			})

			failed := 0
			out := cmd.OutOrStdout()
			for i, res := range results {
				if res != nil {
					printResult(out, res)
				}
				if errs[i] != nil {
					fmt.Fprintf(out, "%s: %v\n", args[i], errs[i])
				}
				if errs[i] != nil || res == nil || !res.OK() {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d scripts failed", failed, len(args))
			}
			return nil
		},
	}
}

func printResult(w io.Writer, res *Result) {
	for _, e := range res.Errors {
		fmt.Fprintf(w, "%s: error: %s\n", res.Script, e.Error())
	}
	for _, warn := range res.Warnings {
		fmt.Fprintf(w, "%s: warning: %s\n", res.Script, warn)
	}
	if res.Report != nil {
		fmt.Fprintf(w, "%s: %s\n", res.Script, res.Report)
		for _, warn := range res.Report.Warnings {
			fmt.Fprintf(w, "%s: warning: %s\n", res.Script, warn)
		}
		for _, herr := range res.Report.HexaErrors {
			fmt.Fprintf(w, "%s: warning: %v\n", res.Script, herr)
		}
	}
	if res.Output != "" {
		fmt.Fprintf(w, "%s: wrote %s\n", res.Script, res.Output)
	}
}
