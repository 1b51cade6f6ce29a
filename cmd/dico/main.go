package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	j "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/nizox/dico"
	"github.com/nizox/dico/codec"
	"github.com/nizox/dico/decl"
	"github.com/nizox/dico/mongo"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		usage(stderr)
		return 2
	}
	var err error
	switch args[0] {
	case "validate":
		err = validateCmd(args[1:], stdout, stderr)
	case "jsonschema":
		err = jsonSchemaCmd(args[1:], stdout, stderr)
	case "convert":
		err = convertCmd(args[1:], stdout, stderr)
	default:
		usage(stderr)
		return 2
	}
	var ue usageError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &ue):
		fmt.Fprintln(stderr, err)
		return 2
	case errors.Is(err, errInvalid):
		return 1
	}
	fmt.Fprintln(stderr, err)
	return 1
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "dico CLI\n\nUsage:\n  dico validate -decl schemas.yaml -schema User [-source name] [-strict] file.json|file.yaml...\n  dico jsonschema -decl schemas.yaml -schema User [-view name]\n  dico convert -decl schemas.yaml -schema User [-source name] [-view name] -to json|yaml file\n\nNotes:\n  - -decl accepts a comma-separated list, loaded in order.\n  - objectid and geopoint field types are available to declarations.")
}

type usageError string

func (e usageError) Error() string { return string(e) }

var errInvalid = errors.New("invalid documents")

// common holds the flags shared by every subcommand.
type common struct {
	decls   string
	schema  string
	verbose bool
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.decls, "decl", "", "comma-separated declaration files (.yaml, .yml, .json)")
	fs.StringVar(&c.schema, "schema", "", "schema name")
	fs.BoolVar(&c.verbose, "v", false, "enable debug logs")
}

func (c *common) load(stderr io.Writer) (*dico.Schema, error) {
	if c.decls == "" || c.schema == "" {
		return nil, usageError("-decl and -schema are required")
	}
	if c.verbose {
		dico.SetLogger(zerolog.New(zerolog.ConsoleWriter{Out: stderr}).Level(zerolog.DebugLevel).With().Timestamp().Logger())
	}
	r := decl.NewRegistry()
	mongo.Register(r)
	for _, path := range splitCSV(c.decls) {
		if _, err := r.LoadFile(path); err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
	}
	s, ok := r.Schema(c.schema)
	if !ok {
		return nil, fmt.Errorf("%w: %q (declared: %s)", decl.ErrUnknownSchema, c.schema, strings.Join(r.Schemas(), ", "))
	}
	return s, nil
}

func validateCmd(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var c common
	c.register(fs)
	var source string
	var strict, partial bool
	fs.StringVar(&source, "source", dico.DefaultName, "source used to import documents")
	fs.BoolVar(&strict, "strict", false, "reject duplicate keys")
	fs.BoolVar(&partial, "partial", false, "skip the required check")
	if err := fs.Parse(args); err != nil {
		return usageError(err.Error())
	}
	if fs.NArg() == 0 {
		return usageError("validate: no input files")
	}
	s, err := c.load(stderr)
	if err != nil {
		return err
	}
	invalid := 0
	for _, path := range fs.Args() {
		d, err := decodeFile(s, source, path, strict)
		if err != nil {
			return err
		}
		check := d.Check
		if partial {
			check = d.CheckPartial
		}
		iss, bad := dico.AsIssues(check())
		if !bad {
			fmt.Fprintf(stdout, "%s: ok\n", path)
			continue
		}
		invalid++
		for _, it := range iss {
			fmt.Fprintf(stdout, "%s: %s: %s (%s)\n", path, it.Path, it.Message, it.Code)
		}
	}
	if invalid > 0 {
		return errInvalid
	}
	return nil
}

func jsonSchemaCmd(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("jsonschema", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var c common
	c.register(fs)
	var view string
	fs.StringVar(&view, "view", dico.DefaultName, "view to describe")
	if err := fs.Parse(args); err != nil {
		return usageError(err.Error())
	}
	s, err := c.load(stderr)
	if err != nil {
		return err
	}
	out, err := s.JSONSchema(view)
	if err != nil {
		return err
	}
	b, err := j.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, string(b))
	return err
}

func convertCmd(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var c common
	c.register(fs)
	var source, view, to string
	fs.StringVar(&source, "source", dico.DefaultName, "source used to import the document")
	fs.StringVar(&view, "view", dico.DefaultName, "view used to export the document")
	fs.StringVar(&to, "to", "json", "output format (json or yaml)")
	if err := fs.Parse(args); err != nil {
		return usageError(err.Error())
	}
	if fs.NArg() != 1 {
		return usageError("convert: expected exactly one input file")
	}
	out, ok := formatByName(to)
	if !ok {
		return usageError(fmt.Sprintf("convert: unknown format %q", to))
	}
	s, err := c.load(stderr)
	if err != nil {
		return err
	}
	d, err := decodeFile(s, source, fs.Arg(0), false)
	if err != nil {
		return err
	}
	cd, err := codec.New(s, out, codec.WithView(view))
	if err != nil {
		return err
	}
	b, err := cd.Encode(d)
	if err != nil {
		return err
	}
	_, err = stdout.Write(b)
	return err
}

func decodeFile(s *dico.Schema, source, path string, strict bool) (*dico.Document, error) {
	f, ok := formatByExt(path, strict)
	if !ok {
		return nil, fmt.Errorf("%s: unsupported file extension", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cd, err := codec.New(s, f, codec.WithSource(source))
	if err != nil {
		return nil, err
	}
	d, err := cd.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

func formatByExt(path string, strict bool) (codec.Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if strict {
			return codec.StrictJSON, true
		}
		return codec.JSON, true
	case ".yaml", ".yml":
		if strict {
			return codec.StrictYAML, true
		}
		return codec.YAML, true
	}
	return nil, false
}

func formatByName(name string) (codec.Format, bool) {
	switch strings.ToLower(name) {
	case "json":
		return codec.JSON, true
	case "yaml", "yml":
		return codec.YAML, true
	}
	return nil, false
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
