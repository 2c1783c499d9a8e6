package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/artpar/impit/internal/cookies"
	httpclient "github.com/artpar/impit/internal/protocol/http"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// copyToClipboard writes to the system clipboard.
var copyToClipboard = clipboard.WriteAll

// createOutput opens the file written by export --output.
var createOutput = func(name string) (io.WriteCloser, error) {
	return os.Create(name)
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

// scopeFlags holds the --domain and --path flags of a cookie command.
// An unset flag means "any", which differs from an explicitly empty one.
type scopeFlags struct {
	domain string
	path   string
}

func (f *scopeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.domain, "domain", "", "Cookie domain (unset matches any domain)")
	cmd.Flags().StringVar(&f.path, "path", "", "Cookie path (unset matches any path)")
}

func (f *scopeFlags) options(cmd *cobra.Command) []cookies.ScopeOption {
	var opts []cookies.ScopeOption
	if cmd.Flags().Changed("domain") {
		opts = append(opts, cookies.WithDomain(f.domain))
	}
	if cmd.Flags().Changed("path") {
		opts = append(opts, cookies.WithPath(f.path))
	}
	return opts
}

// NewCookiesCommand creates the cookies command.
func NewCookiesCommand(g *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cookies",
		Short: "Manage the cookie jar",
		Long:  "Inspect and edit the persistent cookie jar used by send and ws.",
	}

	cmd.AddCommand(
		newCookiesSetCommand(g),
		newCookiesGetCommand(g),
		newCookiesDeleteCommand(g),
		newCookiesClearCommand(g),
		newCookiesListCommand(g),
		newCookiesHeaderCommand(g),
		newCookiesExportCommand(g),
		newCookiesImportCommand(g),
		newCookiesImportHeaderCommand(g),
	)

	return cmd
}

// withJar opens the store, loads the jar and runs fn. When save is set
// the jar is written back after fn succeeds.
func withJar(cmd *cobra.Command, g *GlobalOptions, save bool, fn func(*cookies.Jar) error) error {
	s, err := g.open(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	jar, err := s.load(ctx)
	if err != nil {
		return err
	}

	if err := fn(jar); err != nil {
		return err
	}

	if save {
		return s.save(ctx, jar)
	}
	return nil
}

func newCookiesSetCommand(g *GlobalOptions) *cobra.Command {
	scope := &scopeFlags{}
	var secure, httpOnly bool
	var maxAge time.Duration

	cmd := &cobra.Command{
		Use:   "set NAME VALUE",
		Short: "Set a cookie",
		Long:  "Store a cookie. Domain defaults to empty and path to /. A cookie with the same name, domain and path is replaced.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withJar(cmd, g, true, func(jar *cookies.Jar) error {
				if !secure && !httpOnly && maxAge == 0 {
					jar.Set(args[0], args[1], scope.options(cmd)...)
					return nil
				}

				c := cookies.Cookie{
					Name:   args[0],
					Value:  args[1],
					Domain: scope.domain,
					Path:   scope.path,
					Attributes: cookies.Attributes{
						Secure:   secure,
						HttpOnly: httpOnly,
					},
				}
				if maxAge > 0 {
					c.Attributes.Expires = time.Now().Add(maxAge)
				}
				jar.SetCookie(c)
				return nil
			})
		},
	}

	scope.register(cmd)
	cmd.Flags().BoolVar(&secure, "secure", false, "Only send over https")
	cmd.Flags().BoolVar(&httpOnly, "http-only", false, "Mark the cookie HttpOnly")
	cmd.Flags().DurationVar(&maxAge, "max-age", 0, "Expire the cookie after this duration")

	return cmd
}

func newCookiesGetCommand(g *GlobalOptions) *cobra.Command {
	scope := &scopeFlags{}
	var def string

	cmd := &cobra.Command{
		Use:   "get NAME",
		Short: "Print a cookie value",
		Long:  "Print the value of the single cookie matching NAME and scope. Fails if several cookies match.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withJar(cmd, g, false, func(jar *cookies.Jar) error {
				name := args[0]
				opts := scope.options(cmd)

				var value string
				var err error
				switch {
				case cmd.Flags().Changed("default"):
					value, err = jar.GetDefault(name, def, opts...)
				case len(opts) == 0:
					value, err = jar.Lookup(name)
				default:
					var ok bool
					value, ok, err = jar.Get(name, opts...)
					if err == nil && !ok {
						err = fmt.Errorf("%w: %s", cookies.ErrNotFound, name)
					}
				}
				if err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), value)
				return nil
			})
		},
	}

	scope.register(cmd)
	cmd.Flags().StringVar(&def, "default", "", "Value to print when no cookie matches")

	return cmd
}

func newCookiesDeleteCommand(g *GlobalOptions) *cobra.Command {
	scope := &scopeFlags{}

	cmd := &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete cookies by name",
		Long:  "Delete every cookie named NAME within the given scope. With both --domain and --path only that exact cookie is removed.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withJar(cmd, g, true, func(jar *cookies.Jar) error {
				jar.Delete(args[0], scope.options(cmd)...)
				return nil
			})
		},
	}

	scope.register(cmd)
	return cmd
}

func newCookiesClearCommand(g *GlobalOptions) *cobra.Command {
	scope := &scopeFlags{}

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove cookies by scope",
		Long:  "Remove all cookies, all cookies of --domain, or the cookies of one --domain and --path.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withJar(cmd, g, true, func(jar *cookies.Jar) error {
				return jar.Clear(scope.options(cmd)...)
			})
		},
	}

	scope.register(cmd)
	return cmd
}

func newCookiesListCommand(g *GlobalOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored cookies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withJar(cmd, g, false, func(jar *cookies.Jar) error {
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), jar.Cookies())
				}
				return outputCookieTable(cmd.OutOrStdout(), jar)
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output cookies as JSON")
	return cmd
}

func outputCookieTable(out io.Writer, jar *cookies.Jar) error {
	if jar.IsEmpty() {
		fmt.Fprintln(out, "No cookies stored.")
		return nil
	}

	headers := []string{"NAME", "VALUE", "DOMAIN", "PATH", "EXPIRES", "FLAGS"}
	for i, h := range headers {
		headers[i] = headerStyle.Render(h)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			return cellStyle
		})

	for _, c := range jar.Cookies() {
		domain := c.Domain
		if domain == "" {
			domain = "*"
		}
		expires := "session"
		if !c.IsSession() {
			expires = c.Attributes.Expires.Format(time.RFC3339)
		}
		t.Row(c.Name, c.Value, domain, c.Path, expires, cookieFlags(&c))
	}

	fmt.Fprintln(out, t.Render())
	return nil
}

func cookieFlags(c *cookies.Cookie) string {
	var flags []string
	if c.Attributes.Secure {
		flags = append(flags, "secure")
	}
	if c.Attributes.HttpOnly {
		flags = append(flags, "httponly")
	}
	if c.Attributes.HostOnly {
		flags = append(flags, "hostonly")
	}
	if c.Attributes.SameSite != "" {
		flags = append(flags, "samesite="+c.Attributes.SameSite)
	}
	return strings.Join(flags, ",")
}

func newCookiesHeaderCommand(g *GlobalOptions) *cobra.Command {
	var copyHeader bool

	cmd := &cobra.Command{
		Use:   "header URL",
		Short: "Print the Cookie header for a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := url.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid URL: %w", err)
			}

			return withJar(cmd, g, false, func(jar *cookies.Jar) error {
				header := httpclient.CookieHeader(jar, u)
				if copyHeader {
					if err := copyToClipboard(header); err != nil {
						return fmt.Errorf("failed to copy to clipboard: %w", err)
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), header)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&copyHeader, "copy", false, "Also copy the header to the clipboard")
	return cmd
}

func newCookiesExportCommand(g *GlobalOptions) *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export cookies as JSON or YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "yaml" {
				return fmt.Errorf("unsupported format %q (want json or yaml)", format)
			}

			return withJar(cmd, g, false, func(jar *cookies.Jar) error {
				if output == "" {
					return encodeCookies(cmd.OutOrStdout(), format, jar.Cookies())
				}

				f, err := createOutput(output)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				if err := encodeCookies(f, format, jar.Cookies()); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return fmt.Errorf("failed to write output file: %w", err)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to file instead of stdout")
	return cmd
}

func newCookiesImportCommand(g *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import cookies from a JSON or YAML export",
		Long:  "Merge cookies from a file written by export. Cookies with the same name, domain and path are replaced.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			imported, err := readCookieFile(args[0])
			if err != nil {
				return err
			}

			return withJar(cmd, g, true, func(jar *cookies.Jar) error {
				jar.Update(cookies.FromJar(imported))
				return nil
			})
		},
	}

	return cmd
}

// readCookieFile decodes a cookie export. Files ending in .json are read
// as JSON, anything else as YAML.
func readCookieFile(path string) (*cookies.Jar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var list []cookies.Cookie
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &list)
	} else {
		err = yaml.Unmarshal(data, &list)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	jar := cookies.New()
	for _, c := range list {
		jar.SetCookie(c)
	}
	return jar, nil
}

func newCookiesImportHeaderCommand(g *GlobalOptions) *cobra.Command {
	scope := &scopeFlags{}

	cmd := &cobra.Command{
		Use:   "import-header HEADER",
		Short: `Import cookies from a Cookie header ("a=1; b=2")`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pairs, err := httpclient.ParseCookieHeader(args[0])
			if err != nil {
				return err
			}

			return withJar(cmd, g, true, func(jar *cookies.Jar) error {
				opts := scope.options(cmd)
				if len(opts) == 0 {
					jar.Update(cookies.FromPairs(pairs))
					return nil
				}
				for _, p := range pairs {
					jar.Set(p.Name, p.Value, opts...)
				}
				return nil
			})
		},
	}

	scope.register(cmd)
	return cmd
}

func encodeCookies(out io.Writer, format string, list []cookies.Cookie) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(list); err != nil {
			return fmt.Errorf("failed to encode cookies: %w", err)
		}
		return enc.Close()
	}
	return writeJSON(out, list)
}

func writeJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
