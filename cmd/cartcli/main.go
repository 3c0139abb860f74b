// cartcli drives a cart session against a storefront from the command
// line. Each command spins up the full engine (state store, coordinator,
// gateway, cache), performs one operation, and prints the resulting cart.
//
// Commands:
//
//	cartcli add -type perfume -product 60 [-qty N] [-volume ID] [-price CENTS]
//	cartcli remove -line <line-id>
//	cartcli qty -line <line-id> -qty N
//	cartcli show
//	cartcli clear
//	cartcli login-flow -token <bearer>
//
// Guest carts only persist across invocations with a Redis cache:
//
//	cartcli add -redis redis://localhost:6379 -session demo -type pigment -product 12 -price 1500
//	cartcli login-flow -redis redis://localhost:6379 -session demo -token "$TOKEN"
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/Platina1337/NP-Pigments-frontend-sub000/internal/cache"
	"github.com/Platina1337/NP-Pigments-frontend-sub000/internal/cartstate"
	"github.com/Platina1337/NP-Pigments-frontend-sub000/internal/gateway"
	"github.com/Platina1337/NP-Pigments-frontend-sub000/internal/model"
	"github.com/Platina1337/NP-Pigments-frontend-sub000/internal/pricing"
	"github.com/Platina1337/NP-Pigments-frontend-sub000/internal/session"
)

// Global flags (apply to all commands)
var (
	storeURL   string
	authToken  string
	redisURL   string
	sessionID  string
	debounce   time.Duration
	quiet      bool
	noColor    bool
	verbose    bool
)

// ANSI color codes
var (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

func init() {
	if os.Getenv("NO_COLOR") != "" {
		disableColors()
	}
}

func disableColors() {
	colorReset, colorRed, colorGreen = "", "", ""
	colorYellow, colorCyan, colorGray, colorBold = "", "", "", ""
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "add":
		runAdd(args)
	case "remove":
		runRemove(args)
	case "qty":
		runQty(args)
	case "show":
		runShow(args)
	case "clear":
		runClear(args)
	case "login-flow":
		runLoginFlow(args)
	case "-h", "-help", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `cartcli - storefront cart session tool

Usage:
  cartcli <command> [options]

Commands:
  add         Add a product to the cart
  remove      Remove a cart line
  qty         Set the quantity of a cart line
  show        Print the current cart
  clear       Empty the cart
  login-flow  Hydrate as guest, then log in and show the merged cart

Examples:
  # Guest add, persisted in Redis so later runs see it
  cartcli add -redis redis://localhost:6379 -session demo -type perfume -product 60 -volume 3 -price 308000

  # Authenticated add (goes through the backend first)
  cartcli add -token "$TOKEN" -type pigment -product 12 -qty 2

  # Watch the guest cart merge into the account cart
  cartcli login-flow -redis redis://localhost:6379 -session demo -token "$TOKEN"

Run 'cartcli <command> -h' for command-specific options.
`)
}

// =============================================================================
// SESSION SETUP
// =============================================================================

// cliSession is one fully wired cart engine for the duration of a command.
type cliSession struct {
	co    *session.Coordinator
	store *cartstate.Store
}

func registerCommonFlags(fs *flag.FlagSet) {
	defaultStore := os.Getenv("STOREFRONT_URL")
	if defaultStore == "" {
		defaultStore = "http://localhost:8000"
	}
	fs.StringVar(&storeURL, "store", defaultStore, "Storefront base URL")
	fs.StringVar(&authToken, "token", "", "Bearer token; when set the session is authenticated")
	fs.StringVar(&redisURL, "redis", "", "Redis URL for the guest cart cache (in-memory if empty)")
	fs.StringVar(&sessionID, "session", "cartcli", "Guest session ID scoping the Redis cache key")
	fs.DurationVar(&debounce, "debounce", 300*time.Millisecond, "Sync scheduler settle window")
	fs.BoolVar(&quiet, "q", false, "Quiet mode - only output essential values")
	fs.BoolVar(&noColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&verbose, "v", false, "Verbose - debug-level engine logs")
}

// newSession wires the engine and brings the session up. When login is
// true and -token is set, the account cart is fetched and merged before
// the command runs.
func newSession(ctx context.Context, login bool) *cliSession {
	if noColor {
		disableColors()
	}

	gw, err := gateway.New(gateway.Config{
		BaseURL: storeURL,
		Logger:  cliLogger(),
	})
	if err != nil {
		fatal("Invalid storefront config: %v", err)
	}

	var cartCache cache.Store
	if redisURL != "" {
		cartCache, err = cache.NewRedis(redisURL, sessionID)
		if err != nil {
			fatal("Connecting to Redis: %v", err)
		}
	} else {
		cartCache = cache.NewMemory()
	}

	store := cartstate.NewStore()
	co := session.New(store, gw, cartCache, session.Options{
		Debounce: debounce,
		Logger:   cliLogger(),
	})

	if login && authToken != "" {
		if err := co.SetAuthenticated(ctx, authToken); err != nil {
			printWarning("Account cart fetch failed, cart forced empty: %v", err)
		}
	} else {
		co.HydrateGuest(ctx)
	}

	return &cliSession{co: co, store: store}
}

// finish waits out the debounce window so a scheduled push reaches the
// backend before the process exits, then closes the coordinator.
func (s *cliSession) finish() {
	time.Sleep(debounce + 250*time.Millisecond)
	s.co.Close()
}

func cliLogger() *slog.Logger {
	out := io.Writer(os.Stderr)
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	if quiet && !verbose {
		out = io.Discard
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
}

// =============================================================================
// ADD COMMAND
// =============================================================================

func runAdd(args []string) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	registerCommonFlags(fs)
	var (
		typeName  string
		productID int64
		qty       int
		volumeID  int64
		weightID  int64
		name      string
		price     int64
	)
	fs.StringVar(&typeName, "type", "", "Product type: perfume or pigment (required)")
	fs.Int64Var(&productID, "product", 0, "Product ID (required)")
	fs.IntVar(&qty, "qty", 1, "Quantity")
	fs.Int64Var(&volumeID, "volume", 0, "Volume option ID (perfumes)")
	fs.Int64Var(&weightID, "weight", 0, "Weight option ID (pigments)")
	fs.StringVar(&name, "name", "", "Product name for guest carts (backend fills it after login)")
	fs.Int64Var(&price, "price", 0, "Listed unit price in minor units (guest carts)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: cartcli add -type TYPE -product ID [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	pt, err := model.ParseProductType(typeName)
	if err != nil {
		fatal("%v", err)
	}
	if productID <= 0 {
		fs.Usage()
		os.Exit(1)
	}
	if name == "" {
		name = fmt.Sprintf("%s %d", pt, productID)
	}

	ctx := context.Background()
	s := newSession(ctx, true)
	defer s.finish()

	// For guest sessions the snapshot is what the caller is looking at in
	// the catalog; authenticated adds replace it with the backend's row.
	snap := model.ProductSnapshot{
		ID:        productID,
		Name:      name,
		Price:     price,
		Available: true,
	}
	if volumeID != 0 {
		snap.VolumeOptions = []model.VolumeOption{{ID: volumeID, Price: price}}
	}
	if weightID != 0 {
		snap.WeightOptions = []model.WeightOption{{ID: weightID, Price: price}}
	}
	sel := model.VariantSelection{VolumeOptionID: volumeID, WeightOptionID: weightID}

	if err := s.co.AddItem(ctx, snap, pt, sel, qty); err != nil {
		fatal("Add failed: %v", err)
	}

	printSuccess("Added %s %d x%d", pt, productID, qty)
	printCart(s.store.State())
}

// =============================================================================
// REMOVE / QTY / CLEAR COMMANDS
// =============================================================================

func runRemove(args []string) {
	fs := flag.NewFlagSet("remove", flag.ExitOnError)
	registerCommonFlags(fs)
	var lineID string
	fs.StringVar(&lineID, "line", "", "Cart line ID (required)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: cartcli remove -line <line-id> [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if lineID == "" {
		fs.Usage()
		os.Exit(1)
	}

	ctx := context.Background()
	s := newSession(ctx, true)
	defer s.finish()

	if err := s.co.RemoveItem(ctx, lineID); err != nil {
		fatal("Remove failed: %v", err)
	}

	printSuccess("Removed line %s", lineID)
	printCart(s.store.State())
}

func runQty(args []string) {
	fs := flag.NewFlagSet("qty", flag.ExitOnError)
	registerCommonFlags(fs)
	var (
		lineID string
		qty    int
	)
	fs.StringVar(&lineID, "line", "", "Cart line ID (required)")
	fs.IntVar(&qty, "qty", -1, "New quantity; zero removes the line (required)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: cartcli qty -line <line-id> -qty N [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if lineID == "" || qty < 0 {
		fs.Usage()
		os.Exit(1)
	}

	ctx := context.Background()
	s := newSession(ctx, true)
	defer s.finish()

	s.co.SetQuantity(lineID, qty)

	printSuccess("Line %s quantity set to %d", lineID, qty)
	printCart(s.store.State())
}

func runClear(args []string) {
	fs := flag.NewFlagSet("clear", flag.ExitOnError)
	registerCommonFlags(fs)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: cartcli clear [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	ctx := context.Background()
	s := newSession(ctx, true)
	defer s.finish()

	s.co.ClearCart(ctx)

	printSuccess("Cart cleared")
	printCart(s.store.State())
}

// =============================================================================
// SHOW COMMAND
// =============================================================================

func runShow(args []string) {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	registerCommonFlags(fs)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: cartcli show [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	ctx := context.Background()
	s := newSession(ctx, true)
	defer s.finish()

	printCart(s.store.State())
}

// =============================================================================
// LOGIN-FLOW COMMAND
// =============================================================================

// runLoginFlow shows the ownership transfer end to end: hydrate the guest
// cart, then authenticate and print the merged result.
func runLoginFlow(args []string) {
	fs := flag.NewFlagSet("login-flow", flag.ExitOnError)
	registerCommonFlags(fs)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: cartcli login-flow -token <bearer> [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if authToken == "" {
		fmt.Fprintf(os.Stderr, "Error: -token is required\n\n")
		fs.Usage()
		os.Exit(1)
	}

	ctx := context.Background()
	s := newSession(ctx, false)
	defer s.finish()

	printInfo("Guest cart before login:")
	printCart(s.store.State())

	if err := s.co.SetAuthenticated(ctx, authToken); err != nil {
		printWarning("Account cart fetch failed, cart forced empty: %v", err)
	} else {
		printSuccess("Logged in, carts merged")
	}
	printCart(s.store.State())
}

// =============================================================================
// OUTPUT HELPERS
// =============================================================================

func printCart(state cartstate.State) {
	if quiet {
		for _, it := range state.Items {
			fmt.Println(it.LineID)
		}
		return
	}

	if len(state.Items) == 0 {
		fmt.Printf("%s(cart is empty)%s\n", colorGray, colorReset)
		return
	}

	for _, it := range state.Items {
		info := pricing.Resolve(&it.Snapshot, it.Variant)
		unit := info.Current
		tag := ""
		if info.Discounted {
			tag = fmt.Sprintf(" %s(was %s)%s", colorGray, model.FormatCents(info.Reference), colorReset)
		}
		fmt.Printf("  %s%-12s%s %s%-8s%s x%-3d %s%s%s  %s each%s\n",
			colorCyan, it.LineID, colorReset,
			colorYellow, it.Type, colorReset,
			it.Quantity,
			colorBold, it.Snapshot.Name, colorReset,
			model.FormatCents(unit), tag)
	}
	fmt.Printf("  %sTotal: %s (%d items)%s\n",
		colorGreen, model.FormatCents(state.Total), state.ItemCount, colorReset)
}

func printSuccess(format string, args ...interface{}) {
	if !quiet {
		fmt.Printf("%s✓ %s%s\n", colorGreen, fmt.Sprintf(format, args...), colorReset)
	}
}

func printWarning(format string, args ...interface{}) {
	fmt.Printf("%s⚠ %s%s\n", colorYellow, fmt.Sprintf(format, args...), colorReset)
}

func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Printf("%s→ %s%s\n", colorGray, fmt.Sprintf(format, args...), colorReset)
	}
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s✗ %s%s\n", colorRed, fmt.Sprintf(format, args...), colorReset)
	os.Exit(1)
}
