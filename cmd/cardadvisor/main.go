// cardadvisor is the command-line client for the card advisor backend.
//
// Usage:
//
//	cardadvisor login <email> [password]   Log in and persist the session
//	cardadvisor signup <name> <email>      Create an account
//	cardadvisor logout                     Clear the stored session
//	cardadvisor whoami                     Show the logged-in user
//	cardadvisor profile [-name N]          Show or update the stored profile
//	cardadvisor cards                      List owned cards
//	cardadvisor cards add <name>           Add a card by name
//	cardadvisor cards add -issuer X -product Y
//	cardadvisor cards remove <position>    Remove a card by list position
//	cardadvisor suggest <store>            Suggest the best card for a store
//	cardadvisor suggest -lat L -lng G      Suggest by coordinates
//	cardadvisor suggest -detect -lat L -lng G
//	cardadvisor issuers [search]           List card issuers
//	cardadvisor products [search]          List card products
//	cardadvisor config                     Show the effective configuration
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/term"

	"github.com/shomuran/cardadvisor/internal/advisor"
	"github.com/shomuran/cardadvisor/internal/client"
	"github.com/shomuran/cardadvisor/internal/config"
	"github.com/shomuran/cardadvisor/internal/profile"
	"github.com/shomuran/cardadvisor/internal/session"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

// app bundles the wiring every command needs.
type app struct {
	cfg      *config.Config
	client   *client.Client
	sessions *session.Store
	stateDir string
}

func main() {
	cmd, args, server := parseArgs()

	if cmd == "" || cmd == "help" || cmd == "--help" || cmd == "-h" {
		printUsage()
		if cmd == "" {
			os.Exit(1)
		}
		return
	}
	if cmd == "version" || cmd == "--version" || cmd == "-v" {
		fmt.Printf("cardadvisor version %s\n", version)
		return
	}

	a, err := newApp(server)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cardadvisor: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "login":
		err = a.cmdLogin(ctx, args)
	case "signup":
		err = a.cmdSignup(ctx, args)
	case "logout":
		err = a.cmdLogout()
	case "whoami":
		err = a.cmdWhoami()
	case "profile":
		err = a.cmdProfile(ctx, args)
	case "cards":
		err = a.cmdCards(ctx, args)
	case "suggest":
		err = a.cmdSuggest(ctx, args)
	case "issuers":
		err = a.cmdIssuers(ctx, args)
	case "products":
		err = a.cmdProducts(ctx, args)
	case "config":
		err = a.cmdConfig()
	default:
		fmt.Fprintf(os.Stderr, "cardadvisor: unknown command %q\n\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "cardadvisor: %v\n", err)
		os.Exit(1)
	}
}

// parseArgs extracts the subcommand, positional args, and --server override
// from os.Args.
func parseArgs() (command string, args []string, server string) {
	raw := os.Args[1:]
	var filtered []string
	for i := 0; i < len(raw); i++ {
		if raw[i] == "--server" && i+1 < len(raw) {
			server = raw[i+1]
			i++
			continue
		}
		filtered = append(filtered, raw[i])
	}

	if len(filtered) == 0 {
		return "", nil, server
	}
	return filtered[0], filtered[1:], server
}

func newApp(server string) (*app, error) {
	sessions, err := session.DefaultStore()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(sessions.Dir)
	if err != nil {
		return nil, err
	}
	if server != "" {
		cfg.BaseURL = server
	}

	c := client.New(cfg.BaseURL)
	c.HTTPClient.Timeout = cfg.Timeout
	if sess, ok := sessions.Read(); ok {
		c.Token = sess.Token
	}

	return &app{
		cfg:      cfg,
		client:   c,
		sessions: sessions,
		stateDir: sessions.Dir,
	}, nil
}

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: cardadvisor login <email> [password]")
	}
	email := args[0]

	var result client.LoginResult
	var err error
	if len(args) >= 2 {
		result, err = a.client.Login(ctx, email, args[1])
	} else if password, perr := readPassword("Password (empty for email-only login): "); perr != nil {
		return perr
	} else if password != "" {
		result, err = a.client.Login(ctx, email, password)
	} else {
		result, err = a.client.LoginByEmail(ctx, email)
	}
	if err != nil {
		return err
	}

	if err := a.sessions.Save(session.Session{Email: result.Email, Token: result.Token}); err != nil {
		return err
	}
	fmt.Printf("Logged in as %s\n", result.Email)
	return nil
}

func (a *app) cmdSignup(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: cardadvisor signup <name> <email>")
	}
	name, email := args[0], args[1]

	password, err := readPassword("Password: ")
	if err != nil {
		return err
	}
	if password == "" {
		return fmt.Errorf("password must not be empty")
	}

	registered, err := a.client.Signup(ctx, name, email, password)
	if err != nil {
		return err
	}
	fmt.Printf("Account created for %s. Run `cardadvisor login %s` to log in.\n", registered, registered)
	return nil
}

func (a *app) cmdLogout() error {
	if err := a.sessions.Clear(); err != nil {
		return err
	}
	fmt.Println("Logged out.")
	return nil
}

func (a *app) cmdWhoami() error {
	sess, ok := a.sessions.Read()
	if !ok {
		return fmt.Errorf("not logged in; run `cardadvisor login`")
	}

	fmt.Printf("Email: %s\n", sess.Email)
	if sess.Token == "" {
		fmt.Println("Session: email-only (no token)")
		return nil
	}

	// The token is displayed, not trusted: only the backend verifies it.
	token, _, err := jwt.NewParser().ParseUnverified(sess.Token, jwt.MapClaims{})
	if err != nil {
		fmt.Println("Session: token present (unparseable)")
		return nil
	}
	if exp, err := token.Claims.GetExpirationTime(); err == nil && exp != nil {
		fmt.Printf("Token expires: %s\n", exp.Format(time.RFC3339))
	}
	return nil
}

func (a *app) cmdProfile(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("profile", flag.ContinueOnError)
	name := fs.String("name", "", "Update the display name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p, note, err := a.loadProfile(ctx)
	if err != nil {
		return err
	}
	if note != "" {
		fmt.Fprintf(os.Stderr, "note: %s\n", note)
	}

	if *name != "" {
		p.Name = *name
		if p, err = profile.Save(ctx, a.client, p); err != nil {
			return err
		}
		fmt.Println("Profile updated.")
	}

	fmt.Printf("Name:  %s\n", p.Name)
	fmt.Printf("Email: %s\n", p.Email)
	printCards(p.UserCards)
	return nil
}

func (a *app) cmdCards(ctx context.Context, args []string) error {
	if len(args) == 0 {
		args = []string{"list"}
	}

	switch args[0] {
	case "list":
		p, note, err := a.loadProfile(ctx)
		if err != nil {
			return err
		}
		if note != "" {
			fmt.Fprintf(os.Stderr, "note: %s\n", note)
		}
		printCards(p.UserCards)
		return nil

	case "add":
		return a.cmdCardsAdd(ctx, args[1:])

	case "remove":
		if len(args) < 2 {
			return fmt.Errorf("usage: cardadvisor cards remove <position>")
		}
		pos, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("position must be a number, got %q", args[1])
		}

		p, _, err := a.loadProfile(ctx)
		if err != nil {
			return err
		}
		if err := profile.RemoveCard(&p, pos-1); err != nil {
			return err
		}
		updated, err := profile.Save(ctx, a.client, p)
		if err != nil {
			return err
		}
		fmt.Println("Card removed.")
		printCards(updated.UserCards)
		return nil

	default:
		return fmt.Errorf("unknown cards subcommand %q (want list, add, or remove)", args[0])
	}
}

func (a *app) cmdCardsAdd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("cards add", flag.ContinueOnError)
	issuer := fs.String("issuer", "", "Card issuer (e.g. Chase)")
	product := fs.String("product", "", "Card product (e.g. Sapphire Preferred)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p, _, err := a.loadProfile(ctx)
	if err != nil {
		return err
	}

	if *issuer != "" || *product != "" {
		err = profile.AddStructuredCard(&p, *issuer, *product)
	} else if fs.NArg() > 0 {
		err = profile.AddCard(&p, strings.Join(fs.Args(), " "))
	} else {
		return fmt.Errorf("usage: cardadvisor cards add <name> | -issuer X -product Y")
	}
	if err != nil {
		return err
	}

	updated, err := profile.Save(ctx, a.client, p)
	if err != nil {
		return err
	}
	fmt.Println("Card added.")
	printCards(updated.UserCards)
	return nil
}

func (a *app) cmdSuggest(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("suggest", flag.ContinueOnError)
	lat := fs.Float64("lat", 0, "Latitude")
	lng := fs.Float64("lng", 0, "Longitude")
	detect := fs.Bool("detect", false, "Resolve the store from coordinates before suggesting")
	category := fs.String("category", "", "Spending category override")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p, _, err := a.loadProfile(ctx)
	if err != nil {
		return err
	}
	if len(p.UserCards) == 0 {
		return fmt.Errorf("no cards on profile; add one with `cardadvisor cards add`")
	}

	adv := &advisor.Advisor{Client: a.client}
	hasCoords := flagSet(fs, "lat") && flagSet(fs, "lng")
	if hasCoords {
		adv.Locator = fixedLocation{Latitude: *lat, Longitude: *lng}
		adv.Choose = promptChooser
	}

	var result advisor.Result
	switch {
	case *detect:
		if !hasCoords {
			return fmt.Errorf("-detect requires -lat and -lng")
		}
		candidate, err := adv.ResolveNearby(ctx)
		if err != nil {
			return err
		}
		result, err = adv.Suggest(ctx, p, candidate.Name, candidate.Category)
		if err != nil {
			return err
		}
	case hasCoords:
		result, err = adv.SuggestNearby(ctx, p)
		if err != nil {
			return err
		}
	case fs.NArg() > 0:
		result, err = adv.Suggest(ctx, p, strings.Join(fs.Args(), " "), *category)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("usage: cardadvisor suggest <store> | -lat L -lng G [-detect]")
	}

	printResult(result)
	return nil
}

func (a *app) cmdIssuers(ctx context.Context, args []string) error {
	search := strings.Join(args, " ")
	issuers, err := a.client.Issuers(ctx, search)
	if err != nil {
		return err
	}
	for _, issuer := range issuers {
		fmt.Println(issuer)
	}
	return nil
}

func (a *app) cmdProducts(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("products", flag.ContinueOnError)
	issuer := fs.String("issuer", "", "Filter by issuer")
	if err := fs.Parse(args); err != nil {
		return err
	}

	products, err := a.client.Products(ctx, *issuer, strings.Join(fs.Args(), " "))
	if err != nil {
		return err
	}
	for _, product := range products {
		fmt.Println(product)
	}
	return nil
}

func (a *app) cmdConfig() error {
	fmt.Printf("Server:    %s\n", a.cfg.BaseURL)
	fmt.Printf("Timeout:   %s\n", a.cfg.Timeout)
	fmt.Printf("State dir: %s\n", a.stateDir)
	fmt.Printf("Config:    %s\n", filepath.Join(a.stateDir, config.FileName))
	return nil
}

// loadProfile loads the profile for the stored session, translating the
// auth gate into a login hint.
func (a *app) loadProfile(ctx context.Context) (client.Profile, string, error) {
	p, note, err := profile.Load(ctx, a.client, a.sessions)
	if err == profile.ErrAuthMissing {
		return client.Profile{}, "", fmt.Errorf("not logged in; run `cardadvisor login`")
	}
	return p, note, err
}

func printCards(cards []client.CardRef) {
	if len(cards) == 0 {
		fmt.Println("No cards on profile.")
		return
	}
	fmt.Println("Cards:")
	for i, card := range cards {
		fmt.Printf("  %d. %s\n", i+1, card.Display())
	}
}

func printResult(result advisor.Result) {
	fmt.Printf("Store:    %s\n", result.Store)
	if result.Category != "" {
		fmt.Printf("Category: %s\n", result.Category)
	}
	if result.Quarter != "" {
		fmt.Printf("Quarter:  %s\n", result.Quarter)
	}

	if result.Best == nil {
		fmt.Println("No suggestions for your cards at this store.")
		return
	}
	fmt.Printf("\nBest card: %s (%s)\n", result.Best.CardName, result.Best.ExpectedReward)
	if result.Best.Reasoning != "" {
		fmt.Printf("  %s\n", result.Best.Reasoning)
	}
	for _, alt := range result.Alternatives {
		fmt.Printf("Also: %s (%s)\n", alt.CardName, alt.ExpectedReward)
	}
}

// promptChooser disambiguates nearby stores on stdin. Entering nothing
// dismisses the flow.
func promptChooser(candidates []client.StoreCandidate) (client.StoreCandidate, bool) {
	fmt.Println("Several stores nearby:")
	for i, c := range candidates {
		fmt.Printf("  %d. %s (%s)\n", i+1, c.Name, c.Category)
	}
	fmt.Print("Pick one (empty to cancel): ")

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return client.StoreCandidate{}, false
	}
	choice, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || choice < 1 || choice > len(candidates) {
		return client.StoreCandidate{}, false
	}
	return candidates[choice-1], true
}

// fixedLocation satisfies advisor.Locator with CLI-provided coordinates:
// the terminal has no GPS, the user is the locator.
type fixedLocation struct {
	Latitude  float64
	Longitude float64
}

func (f fixedLocation) Locate(ctx context.Context) (advisor.Location, error) {
	return advisor.Location(f), nil
}

func flagSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	if term.IsTerminal(int(syscall.Stdin)) {
		data, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func printUsage() {
	fmt.Printf(`cardadvisor — credit card advisor CLI %s

Usage:
  cardadvisor [--server <url>] <command> [arguments]

Commands:
  login <email> [password]   Log in and persist the session
  signup <name> <email>      Create an account
  logout                     Clear the stored session
  whoami                     Show the logged-in user
  profile [-name N]          Show or update the stored profile
  cards [list]               List owned cards
  cards add <name>           Add a card by name
  cards add -issuer X -product Y
  cards remove <position>    Remove a card by list position
  suggest <store>            Suggest the best card for a store
  suggest -lat L -lng G      Suggest by coordinates
  suggest -detect -lat L -lng G
  issuers [search]           List card issuers
  products [-issuer X] [search]
  config                     Show the effective configuration

The server URL can also be set via CARDADVISOR_BASE_URL or in
~/.cardadvisor/config.yaml.
`, version)
}
