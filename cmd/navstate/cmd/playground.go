package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/go-drift/navstate/pkg/devtools"
	"github.com/go-drift/navstate/pkg/navigation"
	"github.com/go-drift/navstate/pkg/persist"
	"github.com/go-drift/navstate/pkg/platform"
	"github.com/go-drift/navstate/pkg/telemetry"
)

func init() {
	RegisterCommand(playgroundCmd())
}

// pathStack is the playground's navigation state: the visited paths, most
// recent last.
type pathStack struct {
	Stack []string `json:"stack" yaml:"stack"`
}

type pathAction struct {
	Type string `json:"type"`
	Path string `json:"path,omitempty"`
}

const (
	pathInit = "init"
	pathPush = "push"
	pathBack = "back"
)

// pathRouter pushes every resolved path onto a stack and pops on back.
// Pushing the path already on top is a no-op. A restored stack without
// entries is treated as the root.
type pathRouter struct{}

func (pathRouter) GetStateForAction(a pathAction, prev *pathStack) *pathStack {
	switch a.Type {
	case pathInit:
		if prev != nil {
			return prev
		}
		return &pathStack{Stack: []string{"/"}}
	case pathPush:
		if prev == nil || len(prev.Stack) == 0 {
			return &pathStack{Stack: []string{"/", a.Path}}
		}
		if top := prev.Stack[len(prev.Stack)-1]; top == a.Path {
			return prev
		}
		stack := append(append([]string(nil), prev.Stack...), a.Path)
		return &pathStack{Stack: stack}
	case pathBack:
		if prev == nil || len(prev.Stack) <= 1 {
			return prev
		}
		return &pathStack{Stack: append([]string(nil), prev.Stack[:len(prev.Stack)-1]...)}
	}
	return prev
}

func (pathRouter) GetActionForPathAndParams(path string, _ url.Values) (pathAction, bool) {
	if path == "" {
		return pathAction{}, false
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return pathAction{Type: pathPush, Path: path}, true
}

func (pathRouter) InitAction() pathAction { return pathAction{Type: pathInit} }
func (pathRouter) BackAction() pathAction { return pathAction{Type: pathBack} }

func playgroundCmd() *cobra.Command {
	var (
		initialURL string
		addr       string
		noDevtools bool
	)

	cmd := &cobra.Command{
		Use:   "playground",
		Short: "Drive a navigation container from the terminal",
		Long: `Run a stateful container over a path-stack router using the configured
store, persistence key and URI prefix, and read commands from stdin:

  <url>   open a deep link (e.g. myapp://settings)
  back    press the hardware back button
  state   print the current state
  quit    exit

Unless --no-devtools is given, the inspector is served on devtools.addr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), cfg.Debug)
			codec, _ := persist.CodecByName(cfg.Codec)
			store, closeStore, err := openStore(cmd.Context(), cfg.Store)
			if err != nil {
				return err
			}
			defer closeStore()

			links := platform.NewLinkHub()
			links.SetInitial(initialURL)
			backs := platform.NewBackHub()
			out := cmd.OutOrStdout()
			reg := prometheus.NewRegistry()

			c, err := navigation.New[pathStack, pathAction](pathRouter{}, navigation.Props[pathStack, pathAction]{
				PersistenceKey: cfg.PersistenceKey,
				URIPrefix:      cfg.URIPrefix,
				OnNavigationStateChange: func(prev, next *pathStack, action pathAction) {
					fmt.Fprintf(out, "%s -> %s\n", action.Type, strings.Join(next.Stack, " > "))
				},
			},
				navigation.WithStore(store),
				navigation.WithCodec(codec),
				navigation.WithURLSource(links),
				navigation.WithBackSource(backs),
				navigation.WithMetrics(telemetry.NewMetrics(telemetry.WithRegistry(reg))),
				navigation.WithLogger(logger),
				navigation.WithDebug(cfg.Debug),
			)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			if !noDevtools {
				listen := addr
				if listen == "" {
					listen = cfg.Devtools.Addr
				}
				srv := devtools.New(devtools.Config{Addr: listen, Gatherer: reg, Logger: logger},
					devtools.Watch[pathStack, pathAction]("playground", c))
				bound, err := srv.Start()
				if err != nil {
					return err
				}
				defer srv.Stop(context.Background())
				fmt.Fprintf(out, "devtools listening on http://%s\n", bound)
			}

			c.Mount(ctx)
			defer func() {
				c.Unmount()
				c.WaitPersisted()
			}()
			select {
			case <-c.Ready():
			case <-ctx.Done():
				return nil
			}
			show(out, c)

			return runPlayground(ctx, cmd.InOrStdin(), out, c, links, backs)
		},
	}

	cmd.Flags().StringVar(&initialURL, "url", "", "Launch URL delivered as the initial deep link")
	cmd.Flags().StringVar(&addr, "addr", "", "Devtools listen address (default: devtools.addr)")
	cmd.Flags().BoolVar(&noDevtools, "no-devtools", false, "Do not start the devtools inspector")
	return cmd
}

func runPlayground(ctx context.Context, in io.Reader, out io.Writer, c *navigation.Container[pathStack, pathAction], links *platform.LinkHub, backs *platform.BackHub) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
		case "quit", "exit":
			return nil
		case "state":
			show(out, c)
		case "back":
			if !backs.Press() {
				fmt.Fprintln(out, "back not handled")
			}
		default:
			links.Open(line)
		}
	}
	return scanner.Err()
}

// show prints the current state and confirms it as rendered.
func show(w io.Writer, c *navigation.Container[pathStack, pathAction]) {
	s := c.State()
	data, err := json.Marshal(s)
	if err != nil {
		fmt.Fprintf(w, "state: %v\n", err)
		return
	}
	fmt.Fprintf(w, "state: %s\n", data)
	c.DidRender(s)
}
