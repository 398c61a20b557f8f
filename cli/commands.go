// Package cli provides the Cobra-based CLI for the pharmacy storefront.
package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"pharmacy/cart"
	"pharmacy/config"
	"pharmacy/domain"
	"pharmacy/logger"
	"pharmacy/metrics"
	"pharmacy/notify"
	"pharmacy/server"
	"pharmacy/stock"
	"pharmacy/store"
	"pharmacy/storefront"
)

var (
	rootCmd = &cobra.Command{
		Use:           "pharmacy",
		Short:         "Browse the pharmacy catalog and manage a shopping cart",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// tests inject the source directly
			if productSource != nil {
				return nil
			}

			if cfgFile := viper.GetString("config"); cfgFile != "" {
				viper.SetConfigFile(cfgFile)
				if err := viper.ReadInConfig(); err != nil {
					return err
				}
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			applyOverrides(cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			appConfig = cfg

			appLog = logger.New(logger.Options{
				ServiceName: "pharmacy",
				Level:       logger.ParseLevel(cfg.App.LogLevel),
				Format:      cfg.App.LogFormat,
				Output:      cmd.ErrOrStderr(),
			})
			registry = prometheus.NewRegistry()
			appMetrics = metrics.New(registry)

			productSource, err = store.NewSource(strings.ToLower(cfg.Source.Kind), store.Options{
				File:     cfg.Source.File,
				URL:      cfg.ProductService.URL,
				Timeout:  cfg.ProductService.Timeout,
				Insecure: cfg.ProductService.Insecure,
				Logger:   appLog,
			})
			return err
		},
	}

	productSource domain.ProductSource
	front         *storefront.Storefront
	appConfig     *config.Config
	appLog        *logger.Logger
	appMetrics    *metrics.Metrics
	registry      *prometheus.Registry
)

// applyOverrides lets flags, PHARMACY_* variables seen by viper and the config file
// win over the values loaded by config.Load.
func applyOverrides(cfg *config.Config) {
	if viper.IsSet("source") {
		cfg.Source.Kind = viper.GetString("source")
	}
	if viper.IsSet("source-file") {
		cfg.Source.File = viper.GetString("source-file")
	}
	if viper.IsSet("url") {
		cfg.ProductService.URL = viper.GetString("url")
	}
	if viper.IsSet("timeout") {
		cfg.ProductService.Timeout = viper.GetDuration("timeout")
	}
	if viper.IsSet("insecure") {
		cfg.ProductService.Insecure = viper.GetBool("insecure")
	}
	if viper.IsSet("log-level") {
		cfg.App.LogLevel = viper.GetString("log-level")
	}
	if viper.IsSet("log-format") {
		cfg.App.LogFormat = viper.GetString("log-format")
	}
}

// storefrontFor mounts the session storefront on first use. Inside the shell every
// command shares it, so the cart lives as long as the shell.
func storefrontFor(cmd *cobra.Command) (*storefront.Storefront, error) {
	if front != nil {
		return front, nil
	}
	if productSource == nil {
		return nil, errors.New("no product source configured")
	}
	log := appLog
	if log == nil {
		log = logger.Nop()
	}
	sfCfg := config.StorefrontConfig{Currency: "E£", DefaultImageURL: "/assets/images/panadolColdFlu.jpeg"}
	var timeout time.Duration
	if appConfig != nil {
		sfCfg = appConfig.Storefront
		timeout = appConfig.ProductService.Timeout
	}

	oracle, err := stock.NewOracle(productSource,
		stock.WithTimeout(timeout),
		stock.WithLogger(log),
		stock.WithMetrics(appMetrics))
	if err != nil {
		return nil, err
	}

	sf, err := storefront.Mount(cmd.Context(), storefront.NewSession(sfCfg), storefront.Deps{
		Source:   productSource,
		Oracle:   oracle,
		Notifier: notify.Multi{notify.NewWriterNotifier(errWriter{}), notify.NewLogNotifier(log)},
		Metrics:  appMetrics,
		Logger:   log,
	})
	if err != nil {
		return nil, err
	}
	if err := sf.LoadError(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
	}
	front = sf
	return front, nil
}

func init() {
	// shell
	shellCmd := &cobra.Command{
		Use:   "shell",
		Short: "Interactive shell mode; the cart lives until exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			r := bufio.NewReader(cmd.InOrStdin())
			for {
				fmt.Fprint(out, "pharmacy> ")
				line, err := r.ReadString('\n')
				line = strings.TrimSpace(line)
				if line == "exit" || line == "quit" {
					return nil
				}
				if line != "" && strings.Fields(line)[0] != "shell" {
					resetCommandFlags()
					rootCmd.SetArgs(strings.Fields(line))
					if err := rootCmd.Execute(); err != nil {
						fmt.Fprintln(cmd.ErrOrStderr(), err)
					}
					rootCmd.SetArgs(nil)
				}
				if err != nil {
					return nil
				}
			}
		},
	}
	rootCmd.AddCommand(shellCmd)

	rootCmd.PersistentFlags().String("source", "", "product source: http|memory|file")
	rootCmd.PersistentFlags().String("source-file", "", "product file for the file and memory sources")
	rootCmd.PersistentFlags().String("url", "", "product service base url")
	rootCmd.PersistentFlags().Duration("timeout", 0, "product service request timeout")
	rootCmd.PersistentFlags().Bool("insecure", false, "skip TLS verification of the product service")
	rootCmd.PersistentFlags().String("config", "", "config file")
	rootCmd.PersistentFlags().String("log-level", "", "log level")
	rootCmd.PersistentFlags().String("log-format", "", "log format: json|console")

	// env names match the ones config.Load reads
	for name, env := range map[string]string{
		"source":      "SOURCE_KIND",
		"source-file": "SOURCE_FILE",
		"url":         "PRODUCT_SERVICE_URL",
		"timeout":     "PRODUCT_SERVICE_TIMEOUT",
		"insecure":    "PRODUCT_SERVICE_INSECURE",
		"config":      "CONFIG",
		"log-level":   "LOG_LEVEL",
		"log-format":  "LOG_FORMAT",
	} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
		_ = viper.BindEnv(name, config.EnvPrefix+"_"+env)
	}

	// products
	var pSearch, pCategory, pOutput string
	productsCmd := &cobra.Command{
		Use:   "products",
		Short: "List products, optionally filtered by search term and category",
		RunE: func(cmd *cobra.Command, args []string) error {
			sf, err := storefrontFor(cmd)
			if err != nil {
				return err
			}
			sf.SetSearch(pSearch)
			sf.SetCategory(pCategory)

			out := cmd.OutOrStdout()
			if pOutput == "json" {
				return writeJSON(out, sf.Visible())
			}
			cards := sf.Cards()
			if len(cards) == 0 {
				fmt.Fprintln(out, sf.EmptyMessage())
				return nil
			}
			for _, c := range cards {
				price := c.Price
				if c.DiscountBadge != "" {
					price = fmt.Sprintf("%s (was %s, %s)", c.Price, c.OriginalPrice, c.DiscountBadge)
				}
				fmt.Fprintf(out, "%s | %s | %s | %s | %s\n",
					c.Product.ID, c.Product.Name, price, c.StockLabel, c.Product.Category)
			}
			return nil
		},
	}
	productsCmd.Flags().StringVar(&pSearch, "search", "", "case-insensitive search on name and description")
	productsCmd.Flags().StringVar(&pCategory, "category", "", "category, or \"all\"")
	productsCmd.Flags().StringVar(&pOutput, "output", "", "output format")
	rootCmd.AddCommand(productsCmd)

	// categories
	categoriesCmd := &cobra.Command{
		Use:   "categories",
		Short: "List selectable categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			sf, err := storefrontFor(cmd)
			if err != nil {
				return err
			}
			for _, opt := range sf.CategoryOptions() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", opt.Value, opt.Label)
			}
			return nil
		},
	}
	rootCmd.AddCommand(categoriesCmd)

	// add
	addCmd := &cobra.Command{
		Use:   "add <id> [quantity]",
		Short: "Add a product to the cart after checking current stock",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sf, err := storefrontFor(cmd)
			if err != nil {
				return err
			}
			if len(args) == 2 {
				n, err := parseQuantity(args[1])
				if err != nil {
					return err
				}
				if n < 1 {
					return domain.NewInvalidQuantityError(args[0], n)
				}
				if err := sf.SetQuantity(cmd.Context(), args[0], n); err != nil {
					return err
				}
			}
			line, err := sf.AddToCart(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s x%d in cart\n", line.Product.Name, line.Quantity)
			return nil
		},
	}
	rootCmd.AddCommand(addCmd)

	// update
	updateCmd := &cobra.Command{
		Use:   "update <id> <quantity>",
		Short: "Set the quantity of a cart line; below 1 removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sf, err := storefrontFor(cmd)
			if err != nil {
				return err
			}
			n, err := parseQuantity(args[1])
			if err != nil {
				return err
			}
			if err := sf.UpdateCart(cmd.Context(), args[0], n); err != nil {
				return err
			}
			return printCart(cmd.OutOrStdout(), sf)
		},
	}
	rootCmd.AddCommand(updateCmd)

	// remove
	removeCmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a cart line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sf, err := storefrontFor(cmd)
			if err != nil {
				return err
			}
			if err := sf.RemoveFromCart(cmd.Context(), args[0]); err != nil {
				return err
			}
			return printCart(cmd.OutOrStdout(), sf)
		},
	}
	rootCmd.AddCommand(removeCmd)

	// cart
	var cOutput string
	cartCmd := &cobra.Command{
		Use:   "cart",
		Short: "Show the cart and its subtotal",
		RunE: func(cmd *cobra.Command, args []string) error {
			sf, err := storefrontFor(cmd)
			if err != nil {
				return err
			}
			if cOutput == "json" {
				return writeJSON(cmd.OutOrStdout(), cartJSON(sf))
			}
			return printCart(cmd.OutOrStdout(), sf)
		},
	}
	cartCmd.Flags().StringVar(&cOutput, "output", "", "output format")
	rootCmd.AddCommand(cartCmd)

	// serve
	var addr string
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the configured product source over the product service API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = ":7290"
				if appConfig != nil {
					addr = appConfig.Server.Addr
				}
			}
			var gatherer prometheus.Gatherer
			if registry != nil {
				gatherer = registry
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.Run(ctx, addr, server.NewRouter(productSource, appLog, gatherer), appLog)
		},
	}
	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address")
	rootCmd.AddCommand(serveCmd)

	// import
	var importFile string
	importCmd := &cobra.Command{
		Use:   "import --file <file>",
		Short: "Import products from a JSON array or NDJSON file into a memory or file source",
		RunE: func(cmd *cobra.Command, args []string) error {
			if importFile == "" {
				return errors.New("--file required")
			}
			imp, ok := productSource.(importer)
			if !ok {
				return errors.New("source does not accept imports")
			}

			b, err := os.ReadFile(importFile)
			if err != nil {
				return err
			}
			products, rejected, err := decodeImport(b)
			if err != nil {
				return err
			}
			for _, r := range rejected {
				fmt.Fprintln(cmd.ErrOrStderr(), r)
			}
			before, err := productSource.List(cmd.Context())
			if err != nil {
				return err
			}
			if err := imp.Import(cmd.Context(), products); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
			}
			after, err := productSource.List(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d products\n", len(after)-len(before))
			return nil
		},
	}
	importCmd.Flags().StringVar(&importFile, "file", "", "input file")
	rootCmd.AddCommand(importCmd)

	// export
	var exportFile, exportCategory string
	exportCmd := &cobra.Command{
		Use:   "export --file <file>",
		Short: "Export the catalog to a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if exportFile == "" {
				return errors.New("--file required")
			}
			sf, err := storefrontFor(cmd)
			if err != nil {
				return err
			}
			if err := sf.LoadError(); err != nil {
				return err
			}
			products := sf.Catalog().Products()
			if exportCategory != "" {
				sf.SetSearch("")
				sf.SetCategory(exportCategory)
				products = sf.Visible()
			}
			b, err := json.MarshalIndent(products, "", "  ")
			if err != nil {
				return err
			}
			return os.WriteFile(exportFile, b, 0o644)
		},
	}
	exportCmd.Flags().StringVar(&exportFile, "file", "", "output file")
	exportCmd.Flags().StringVar(&exportCategory, "category", "", "category")
	rootCmd.AddCommand(exportCmd)
}

// errWriter resolves the root command's error stream on every write, so notices from
// a storefront mounted earlier in the shell land on the current command's stream.
type errWriter struct{}

func (errWriter) Write(p []byte) (int, error) { return rootCmd.ErrOrStderr().Write(p) }

type importer interface {
	Import(ctx context.Context, products []domain.Product) error
}

// decodeImport accepts a JSON array or one JSON object per line.
func decodeImport(b []byte) ([]domain.Product, []error, error) {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 {
		return nil, nil, errors.New("empty file")
	}
	if trimmed[0] == '[' {
		return store.DecodeProducts(trimmed)
	}

	var products []domain.Product
	var rejected []error
	scanner := bufio.NewScanner(bytes.NewReader(trimmed))
	for i := 0; scanner.Scan(); i++ {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if line[0] != '{' {
			return nil, nil, fmt.Errorf("line %d: unsupported format", i+1)
		}
		p, err := store.DecodeProduct(line)
		if err != nil {
			rejected = append(rejected, fmt.Errorf("line %d: %w", i+1, err))
			continue
		}
		products = append(products, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return products, rejected, nil
}

// resetCommandFlags restores subcommand flags to their defaults so repeated
// executions in one process do not inherit values.
func resetCommandFlags() {
	for _, c := range rootCmd.Commands() {
		c.LocalFlags().VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
}

func parseQuantity(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid quantity %q", s)
	}
	return n, nil
}

func printCart(out io.Writer, sf *storefront.Storefront) error {
	view := sf.CartView()
	if view.Empty() {
		fmt.Fprintln(out, view.EmptyMessage)
		return nil
	}
	for _, l := range view.Lines {
		fmt.Fprintf(out, "%s | %s | x%d | %s\n",
			l.Product.ID, l.Product.Name, l.Quantity, sf.FormatMoney(cart.LineTotal(l)))
	}
	fmt.Fprintf(out, "Items: %d\n", view.ItemCount)
	fmt.Fprintf(out, "Subtotal: %s\n", sf.FormatMoney(view.Subtotal))
	return nil
}

type cartLineJSON struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
	Total     string `json:"total"`
}

type cartViewJSON struct {
	Lines     []cartLineJSON `json:"lines"`
	ItemCount int            `json:"itemCount"`
	Subtotal  string         `json:"subtotal"`
}

func cartJSON(sf *storefront.Storefront) cartViewJSON {
	view := sf.CartView()
	out := cartViewJSON{Lines: []cartLineJSON{}, ItemCount: view.ItemCount, Subtotal: view.Subtotal.StringFixed(2)}
	for _, l := range view.Lines {
		out.Lines = append(out.Lines, cartLineJSON{
			ID:        l.Product.ID,
			Name:      l.Product.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.Product.EffectivePrice().StringFixed(2),
			Total:     cart.LineTotal(l).StringFixed(2),
		})
	}
	return out
}

func writeJSON(out io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(b))
	return err
}

func Execute() error {
	return rootCmd.Execute()
}
