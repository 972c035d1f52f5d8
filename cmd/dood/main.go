package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/civil"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/vncsmyrnk/dood/doodle"
	"github.com/vncsmyrnk/dood/internal/logger"
)

const usage = `usage: dood <command> [flags]

commands:
  create   create a poll and print its public and admin URLs
  get      print a poll as JSON
`

func main() {
	// .env is optional for the CLI
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "dood:", err)
		os.Exit(1)
	}
}

type globalFlags struct {
	key     string
	secret  string
	baseURL string
	timeout time.Duration
	verbose bool
}

func (g *globalFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&g.key, "consumer-key", os.Getenv("DOODLE_CONSUMER_KEY"), "OAuth consumer key")
	fs.StringVar(&g.secret, "consumer-secret", os.Getenv("DOODLE_CONSUMER_SECRET"), "OAuth consumer secret")
	fs.StringVar(&g.baseURL, "base-url", envOr("DOODLE_BASE_URL", doodle.DefaultBaseURL), "API root")
	fs.DurationVar(&g.timeout, "timeout", 30*time.Second, "HTTP timeout")
	fs.BoolVar(&g.verbose, "v", false, "log requests to stderr")
}

func (g *globalFlags) client() (*doodle.Client, error) {
	if g.key == "" || g.secret == "" {
		return nil, errors.New("consumer key and secret are required (-consumer-key, -consumer-secret or DOODLE_CONSUMER_KEY, DOODLE_CONSUMER_SECRET)")
	}

	log := zerolog.Nop()
	if g.verbose {
		log = logger.New("local")
	}
	return doodle.NewClient(g.key, g.secret,
		doodle.WithBaseURL(g.baseURL),
		doodle.WithTimeout(g.timeout),
		doodle.WithLogger(log),
	), nil
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New(strings.TrimSpace(usage))
	}

	switch args[0] {
	case "create":
		return runCreate(ctx, args[1:], out)
	case "get":
		return runGet(ctx, args[1:], out)
	case "help", "-h", "-help", "--help":
		fmt.Fprint(out, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
}

// optionList collects repeated -option flags.
type optionList []string

func (o *optionList) String() string { return strings.Join(*o, ",") }

func (o *optionList) Set(v string) error {
	*o = append(*o, v)
	return nil
}

func runCreate(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	var (
		g       globalFlags
		poll    doodle.Poll
		options optionList
		pType   string
	)
	g.register(fs)
	fs.StringVar(&pType, "type", string(doodle.PollTypeText), "TEXT or DATE")
	fs.StringVar(&poll.Title, "title", "", "poll title")
	fs.StringVar(&poll.Description, "description", "", "poll description")
	fs.StringVar(&poll.Location, "location", "", "poll location")
	fs.BoolVar(&poll.Hidden, "hidden", false, "hide participants from each other")
	fs.StringVar(&poll.Initiator.Name, "initiator", "", "initiator name")
	fs.StringVar(&poll.Initiator.Email, "email", "", "initiator email")
	fs.Var(&options, "option", "option label, date (2006-01-02), datetime (2006-01-02T15:04:05) or start/end; repeatable")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if poll.Title == "" || poll.Initiator.Name == "" {
		return errors.New("-title and -initiator are required")
	}
	poll.Type = doodle.PollType(strings.ToUpper(pType))

	for _, raw := range options {
		entry, err := parseOption(raw)
		if err != nil {
			return err
		}
		poll.Options = append(poll.Options, entry)
	}

	client, err := g.client()
	if err != nil {
		return err
	}

	res, err := client.CreatePoll(ctx, poll)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "location:  %s\n", res.Location)
	fmt.Fprintf(out, "key:       %s\n", res.Key)
	fmt.Fprintf(out, "public:    %s\n", client.PublicURL(res.ID()))
	fmt.Fprintf(out, "admin:     %s\n", client.AdminURL(res.ID(), res.Key))
	return nil
}

func runGet(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	var (
		g   globalFlags
		id  string
		key string
	)
	g.register(fs)
	fs.StringVar(&id, "id", "", "poll id")
	fs.StringVar(&key, "key", "", "admin key, for polls the session does not own")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if id == "" {
		return errors.New("-id is required")
	}

	client, err := g.client()
	if err != nil {
		return err
	}

	data, err := client.GetPoll(ctx, id, key)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// parseOption reads a date, a datetime, a "start/end" datetime range, or
// falls back to a text label.
func parseOption(raw string) (doodle.OptionEntry, error) {
	if start, end, ok := strings.Cut(raw, "/"); ok {
		s, errStart := civil.ParseDateTime(start)
		e, errEnd := civil.ParseDateTime(end)
		if errStart == nil && errEnd == nil {
			return doodle.Option{Start: &s, End: &e}, nil
		}
		if errStart == nil || errEnd == nil {
			return nil, fmt.Errorf("invalid range %q: both ends must be datetimes", raw)
		}
	}
	if dt, err := civil.ParseDateTime(raw); err == nil {
		return doodle.Option{DateTime: &dt}, nil
	}
	if d, err := civil.ParseDate(raw); err == nil {
		return doodle.Option{Date: &d}, nil
	}
	return doodle.Text(raw), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
