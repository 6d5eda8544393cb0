package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/creachadair/command"
	"github.com/creachadair/flax"
	"github.com/danderson/idl"
	"github.com/danderson/idl/gateway"
	"github.com/danderson/idl/internal/config"
	"github.com/kr/pretty"
	"go.uber.org/zap"
)

var globalArgs struct {
	Config  string `flag:"config,Config file (default $XDG_CONFIG_HOME/idl2json/config.yaml)"`
	Verbose bool   `flag:"v,Log debug messages to stderr"`
}

var decodeArgs struct {
	Schema    string `flag:"schema,Comma-separated schema files to consult before configured ones"`
	Bytes     string `flag:"bytes,Blob format (numbers or hex or sha256)"`
	LongBytes string `flag:"long-bytes,Blob format for blobs of at least N bytes (N:format)"`
	Compact   bool   `flag:"compact,Print JSON without indentation"`
	Types     string `flag:"types,Types of the decoded values in Candid syntax"`
	Debug     bool   `flag:"debug,Dump decoded values to stderr"`
}

var encodeArgs struct {
	Schema string `flag:"schema,Comma-separated list of schema files"`
	Types  string `flag:"types,Types of the arguments in Candid syntax"`
	Empty  string `flag:"empty,Policy for empty argument lists (zero or error)"`
}

var callArgs struct {
	Schema    string `flag:"schema,Comma-separated schema files to consult before configured ones"`
	Bytes     string `flag:"bytes,Blob format (numbers or hex or sha256)"`
	LongBytes string `flag:"long-bytes,Blob format for blobs of at least N bytes (N:format)"`
	Compact   bool   `flag:"compact,Print JSON without indentation"`
	Empty     string `flag:"empty,Policy for empty argument lists (zero or error)"`
	NoFetch   bool   `flag:"no-fetch,Don't ask the target for its schema"`
	Budget    uint64 `flag:"budget,Call budget (default from config)"`
}

var schemaArgs struct {
	Target string `flag:"target,Fetch the schema of this service instead of reading a file"`
}

func main() {
	root := &command.C{
		Name:     "idl2json",
		Usage:    "command args...",
		Help:     "Convert Candid values to JSON, and call Candid services.",
		SetFlags: command.Flags(flax.MustBind, &globalArgs),
		Commands: []*command.C{
			{
				Name:     "decode",
				Usage:    "decode [hex]",
				SetFlags: command.Flags(flax.MustBind, &decodeArgs),
				Help: `Decode a Candid binary message and print it as JSON.

The message is read as hex from the argument, or from stdin if no
argument is given. Without --types, record and variant fields are
printed with numeric keys, since the binary format doesn't carry field
names.`,
				Run: runDecode,
			},
			{
				Name:     "encode",
				Usage:    "encode [args]",
				SetFlags: command.Flags(flax.MustBind, &encodeArgs),
				Help: `Encode Candid text arguments as a binary message.

Arguments are given in Candid text syntax, for example:
  idl2json encode '(42, "hello", opt record { a = vec { 1; 2 } })'

Untyped numbers encode as int unless --types says otherwise.`,
				Run: runEncode,
			},
			{
				Name:     "call",
				Usage:    "call target method [args]",
				SetFlags: command.Flags(flax.MustBind, &callArgs),
				Help: `Call a method of a remote service through the configured gateway.

Arguments are given in Candid text syntax, as for encode. Results are
printed as a JSON array.`,
				Run: runCall,
			},
			{
				Name:     "schema",
				Usage:    "schema file [name]\nschema --target=principal [name]",
				SetFlags: command.Flags(flax.MustBind, &schemaArgs),
				Help:     "Print a schema document, or one of its type declarations.",
				Run:      runSchema,
			},
			command.HelpCommand(nil),
			command.VersionCommand(),
		},
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	env := root.NewEnv(nil).SetContext(ctx)
	command.RunOrFail(env, os.Args[1:])
}

func runDecode(env *command.Env) error {
	if len(env.Args) > 1 {
		return env.Usagef("decode takes at most one argument.")
	}
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	opts, err := outputOptions(cfg, decodeArgs.Schema, decodeArgs.Bytes, decodeArgs.LongBytes, decodeArgs.Compact)
	if err != nil {
		return err
	}

	in, err := readInput(env.Args)
	if err != nil {
		return err
	}
	bs, err := hex.DecodeString(in)
	if err != nil {
		return fmt.Errorf("input is not hex: %w", err)
	}
	vals, err := idl.Decode(bs)
	if err != nil {
		return err
	}
	log.Debug("decoded message", zap.Int("bytes", len(bs)), zap.Int("values", len(vals)))
	if decodeArgs.Debug {
		fmt.Fprintf(os.Stderr, "%# v\n", pretty.Formatter(vals))
	}

	var types []idl.Type
	if decodeArgs.Types != "" {
		if types, err = idl.ParseTypes(decodeArgs.Types); err != nil {
			return fmt.Errorf("parsing --types: %w", err)
		}
		if len(types) != len(vals) {
			log.Warn("type list does not match message",
				zap.Int("types", len(types)), zap.Int("values", len(vals)))
		}
	}
	return printJSON(idl.ArgsToJSONWithTypes(vals, types, opts), opts)
}

func runEncode(env *command.Env) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	schema, err := loadSchema(encodeArgs.Schema, cfg)
	if err != nil {
		return err
	}
	empty, err := emptyPolicy(encodeArgs.Empty, cfg)
	if err != nil {
		return err
	}

	args, err := idl.ParseArgs(strings.Join(env.Args, " "))
	if err != nil {
		return err
	}
	if encodeArgs.Types != "" {
		types, err := idl.ParseTypes(encodeArgs.Types)
		if err != nil {
			return fmt.Errorf("parsing --types: %w", err)
		}
		for i := range min(len(args), len(types)) {
			args[i] = idl.Annotate(args[i], types[i], schema)
		}
	}

	tup, err := idl.ToTuple(args, empty)
	if err != nil {
		return err
	}
	bs, err := idl.EncodeTuple(tup)
	if err != nil {
		return err
	}
	fmt.Println(hex.EncodeToString(bs))
	return nil
}

func runCall(env *command.Env) error {
	if len(env.Args) < 2 {
		return env.Usagef("call requires a target and a method.")
	}
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	target, err := idl.ParsePrincipal(env.Args[0])
	if err != nil {
		return fmt.Errorf("parsing target: %w", err)
	}
	method := env.Args[1]
	args, err := idl.ParseArgs(strings.Join(env.Args[2:], " "))
	if err != nil {
		return err
	}

	opts, err := outputOptions(cfg, callArgs.Schema, callArgs.Bytes, callArgs.LongBytes, callArgs.Compact)
	if err != nil {
		return err
	}
	client, err := newClient(cfg, log, opts)
	if err != nil {
		return err
	}
	if client.EmptyArgs, err = emptyPolicy(callArgs.Empty, cfg); err != nil {
		return err
	}
	if callArgs.Budget != 0 {
		client.Budget = callArgs.Budget
	}
	client.FetchSchema = cfg.Schema.Fetch && !callArgs.NoFetch

	ctx, cancel, err := callContext(env.Context(), cfg)
	if err != nil {
		return err
	}
	defer cancel()

	ret, err := client.Call(ctx, target, method, args)
	if err != nil {
		var rej idl.CallError
		if errors.As(err, &rej) {
			return fmt.Errorf("%s.%s rejected the call (%s): %s", target, method, rej.Code, rej.Message)
		}
		return err
	}
	return printJSON(ret, opts)
}

func runSchema(env *command.Env) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	var (
		doc  *idl.Document
		name string
	)
	if schemaArgs.Target != "" {
		if len(env.Args) > 1 {
			return env.Usagef("schema --target takes at most one argument.")
		}
		target, err := idl.ParsePrincipal(schemaArgs.Target)
		if err != nil {
			return fmt.Errorf("parsing target: %w", err)
		}
		client, err := newClient(cfg, log, nil)
		if err != nil {
			return err
		}
		ctx, cancel, err := callContext(env.Context(), cfg)
		if err != nil {
			return err
		}
		defer cancel()
		if doc, err = client.Schema(ctx, target); err != nil {
			return fmt.Errorf("fetching schema of %s: %w", target, err)
		}
	} else {
		if len(env.Args) < 1 || len(env.Args) > 2 {
			return env.Usagef("schema requires a file and an optional name.")
		}
		s, err := config.LoadSchema(env.Args[:1])
		if err != nil {
			return err
		}
		doc, env.Args = s[0], env.Args[1:]
	}
	if len(env.Args) > 0 {
		name = env.Args[0]
	}

	if name == "" {
		fmt.Println(doc)
		return nil
	}
	s := idl.Schema{doc}
	t, ok := s.Lookup(name)
	if !ok {
		return fmt.Errorf("schema does not declare %q", name)
	}
	resolved, ok := s.Resolve(t)
	if !ok {
		return fmt.Errorf("cannot resolve %q, its declaration refers to undeclared or cyclic types", name)
	}
	fmt.Printf("type %s = %s;\n", name, resolved)
	return nil
}

func newClient(cfg *config.Config, log *zap.Logger, opts *idl.Options) (*gateway.Client, error) {
	if cfg.Gateway.URL == "" {
		return nil, errors.New("no gateway URL configured, set gateway.url in the config file or IDL2JSON_GATEWAY_URL")
	}
	return &gateway.Client{
		Gateway: &gateway.HTTP{URL: cfg.Gateway.URL, Client: &http.Client{}},
		Logger:  log,
		Options: opts,
		Budget:  cfg.Gateway.Budget,
	}, nil
}
