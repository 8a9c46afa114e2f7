// Command lumen assembles, disassembles and validates binary modules.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lumenvm/lumen/internal/asm"
	"github.com/lumenvm/lumen/internal/ir"
	"github.com/lumenvm/lumen/internal/store"
	"github.com/lumenvm/lumen/pkg/db/pebble"
	"github.com/lumenvm/lumen/pkg/log"
	"github.com/lumenvm/lumen/pkg/serialization"
	"github.com/lumenvm/lumen/pkg/serialization/codec/word"
)

var (
	logLevel string
	logJSON  bool

	outPath   string
	cachePath string
)

func main() {
	root := &cobra.Command{
		Use:           "lumen",
		Short:         "assemble, disassemble and validate lumen modules",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := log.ParseLogLevel(logLevel)
			if err != nil {
				return fmt.Errorf("parsing log level: %w", err)
			}
			opts := log.Options{LogLevel: level, Type: log.ConsoleLogger}
			if logJSON {
				opts.Type = log.JSONLogger
			}
			log.Init(opts)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", zerolog.LevelInfoValue, "log level (trace..panic)")
	root.PersistentFlags().BoolVar(&logJSON, "log-json", false, "emit JSON logs")

	validate := &cobra.Command{
		Use:   "validate <module.lasm>",
		Short: "parse and verify a textual module",
		Args:  cobra.ExactArgs(1),
		RunE:  runValidate,
	}

	printCmd := &cobra.Command{
		Use:   "print <module.lasm>",
		Short: "reprint a textual module in canonical form",
		Args:  cobra.ExactArgs(1),
		RunE:  runPrint,
	}

	encode := &cobra.Command{
		Use:   "encode <module.lasm>",
		Short: "encode a textual module to the binary word format",
		Args:  cobra.ExactArgs(1),
		RunE:  runEncode,
	}
	encode.Flags().StringVarP(&outPath, "out", "o", "", "output path (default: stdout digest only)")
	encode.Flags().StringVar(&cachePath, "cache", "", "also store the encoded module in this cache directory")

	decode := &cobra.Command{
		Use:   "decode <module.lmod>",
		Short: "decode a binary module and print its textual form",
		Args:  cobra.ExactArgs(1),
		RunE:  runDecode,
	}

	root.AddCommand(validate, printCmd, encode, decode)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func parseFile(path string) (*ir.Module, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	m, _, err := asm.ParseModule(string(src), ir.Default())
	if err != nil {
		return nil, err
	}
	log.Asm.Debug().Str("file", path).Int("ops", len(m.Ops)).Msg("module parsed")
	return m, nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	m, err := parseFile(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d ops ok\n", args[0], len(m.Ops))
	return nil
}

func runPrint(cmd *cobra.Command, args []string) error {
	m, err := parseFile(args[0])
	if err != nil {
		return err
	}
	fmt.Print(asm.PrintModule(m))
	return nil
}

func runEncode(cmd *cobra.Command, args []string) error {
	m, err := parseFile(args[0])
	if err != nil {
		return err
	}
	s := serialization.NewSerializer(word.Codec{})
	encoded, err := s.Encode(m)
	if err != nil {
		return err
	}
	log.Codec.Debug().Int("bytes", len(encoded)).Msg("module encoded")

	if outPath != "" {
		if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", outPath, err)
		}
	}
	if cachePath != "" {
		kv, err := pebble.NewStore(cachePath)
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		defer kv.Close()
		key, err := store.NewModuleCache(kv).Put(encoded)
		if err != nil {
			return err
		}
		fmt.Println("cached:", key)
		return nil
	}
	fmt.Println("digest:", store.KeyOf(encoded))
	return nil
}

func runDecode(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}
	s := serialization.NewSerializer(word.Codec{})
	m, err := s.Decode(data, ir.Default())
	if err != nil {
		return err
	}
	fmt.Print(asm.PrintModule(m))
	return nil
}
