package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"pedit/internal/app"
	"pedit/internal/config"
	"pedit/internal/console"
	"pedit/internal/edit"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a PEApp. The caller must defer a.Close().
// command identifies the CLI command being run (e.g. "edit", "history").
func newApp(command string, args ...string) (*app.PEApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := defaults.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewPEApp(cfg, command, args...)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

func newConsole(a *app.PEApp, prompt bool) *console.Console {
	cfg := a.Config()
	return console.New(a.Service(), os.Stdout, console.Options{
		PageSize:    cfg.Editor.PageSize,
		DefaultSort: cfg.Editor.DefaultSort,
		Prompt:      prompt,
		Logger:      a.Logger(),
	})
}

// readPassphrase reads a passphrase without echo when stdin is a terminal,
// otherwise it reads one line.
func readPassphrase(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("reading passphrase: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(b), nil
}

var rootCmd = &cobra.Command{
	Use:          "pedit",
	Short:        "Player roster editor",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		if err := config.Init(defaults.ConfigPath, defaults.NewConfig()); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults.ConfigPath)
		fmt.Printf("Data Dir: %s\n", defaults.BaseDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}
		cfg, err := defaults.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults.ConfigPath)
		fmt.Printf("Data Dir:    %s\n", cfg.DataDir)
		fmt.Printf("Log Dir:     %s (%s)\n", cfg.LogDir, cfg.LogLevel)
		fmt.Printf("History:     %s\n", cfg.Database.Type)
		fmt.Printf("Archive:     %s\n", cfg.Archive.Type)
		fmt.Printf("Encryption:  %s\n", cfg.Encryption.Type)
		fmt.Printf("Page Size:   %d\n", cfg.Editor.PageSize)
		fmt.Printf("Sort:        %s\n", strings.Join(cfg.Editor.DefaultSort, ", "))
		return nil
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage backup encryption keys",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the backup encryption key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("keys init")
		if err != nil {
			return err
		}
		defer a.Close()

		if !a.EncryptionEnabled() {
			return errors.New("encryption is disabled: set [encryption] type = \"age\" in the config")
		}
		pass, err := readPassphrase("New passphrase: ")
		if err != nil {
			return err
		}
		if term.IsTerminal(int(os.Stdin.Fd())) {
			confirm, err := readPassphrase("Repeat passphrase: ")
			if err != nil {
				return err
			}
			if confirm != pass {
				return errors.New("passphrases do not match")
			}
		}
		if err := a.SetupKeys(pass); err != nil {
			a.Fail(err)
			return fmt.Errorf("setting up keys: %w", err)
		}

		pub, err := a.PublicKey()
		if err != nil {
			return err
		}
		fmt.Printf("Public key: %s\n", pub)
		return nil
	},
}

var keysShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the backup encryption public key",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("keys show")
		if err != nil {
			return err
		}
		defer a.Close()

		if !a.EncryptionEnabled() {
			return errors.New("encryption is disabled")
		}
		pub, err := a.PublicKey()
		if err != nil {
			return err
		}
		fmt.Println(pub)
		return nil
	},
}

func addFilterFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int("country", 0, "Nationality ID")
	f.Int("club", 0, "Club ID")
	f.Int("min-ca", 0, "Minimum current ability")
	f.Int("max-ca", 0, "Maximum current ability")
	f.Int("min-pa", 0, "Minimum potential ability")
	f.Int("max-pa", 0, "Maximum potential ability")
	f.Int("foot", 0, "Preferred foot")
	f.Int("number", 0, "Favourite number")
	f.Int("year", 0, "Birth year")
	f.String("name", "", "Name contains (case-insensitive)")
	f.StringSlice("sort", nil, "Sort keys in priority order (e.g. ca_desc,name_asc)")
}

// filterFromFlags builds a Filter from the flags the user actually set.
func filterFromFlags(cmd *cobra.Command) edit.Filter {
	flags := cmd.Flags()
	intFlag := func(name string) *int {
		if !flags.Changed(name) {
			return nil
		}
		v, _ := flags.GetInt(name)
		return &v
	}
	name, _ := flags.GetString("name")
	sort, _ := flags.GetStringSlice("sort")
	return edit.Filter{
		Country:         intFlag("country"),
		Club:            intFlag("club"),
		MinCA:           intFlag("min-ca"),
		MaxCA:           intFlag("max-ca"),
		MinPA:           intFlag("min-pa"),
		MaxPA:           intFlag("max-pa"),
		PreferredFoot:   intFlag("foot"),
		FavouriteNumber: intFlag("number"),
		BirthYear:       intFlag("year"),
		Name:            name,
		Sort:            sort,
	}
}

// list command
var listCmd = &cobra.Command{
	Use:   "list FILE",
	Short: "List players in a roster file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")

		a, err := newApp("list", args...)
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.Load(args[0]); err != nil {
			a.Fail(err)
			return err
		}
		c := newConsole(a, false)
		defer c.Close()
		return c.List(filterFromFlags(cmd), page)
	},
}

// stats command
var statsCmd = &cobra.Command{
	Use:   "stats FILE",
	Short: "Show roster statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		top, _ := cmd.Flags().GetInt("top")

		a, err := newApp("stats", args...)
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.Load(args[0]); err != nil {
			a.Fail(err)
			return err
		}
		f := filterFromFlags(cmd)
		console.PrintStatistics(os.Stdout, a.Service().Statistics(f))
		if top > 0 {
			fmt.Println()
			console.PrintTopPlayers(os.Stdout, a.Service().TopPlayers(f, top))
		}
		return nil
	},
}

// edit command
var editCmd = &cobra.Command{
	Use:   "edit FILE",
	Short: "Edit a roster file interactively",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("edit", args...)
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.Load(args[0])
		if err != nil {
			a.Fail(err)
			return err
		}
		interactive := term.IsTerminal(int(os.Stdin.Fd()))
		if interactive {
			fmt.Printf("Loaded %d players from %s. Type help for commands.\n", n, a.Service().Path())
		}

		c := newConsole(a, interactive)
		defer c.Close()
		if err := c.Run(os.Stdin); err != nil {
			a.Fail(err)
			return err
		}

		if pending := a.Service().Tracker().Count(); pending > 0 {
			fmt.Printf("Discarded %d unsaved changes.\n", pending)
		}
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View save history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("history")
		if err != nil {
			return err
		}
		defer a.Close()

		ops, err := a.Service().History(limit)
		if err != nil {
			return err
		}
		if len(ops) == 0 {
			fmt.Println("No saves recorded.")
			return nil
		}

		for _, op := range ops {
			duration := ""
			if op.FinishedAt.Valid {
				duration = op.FinishedAt.Time.Sub(op.StartedAt).Truncate(time.Millisecond).String()
			}
			backup := ""
			if op.ArchiveVersion.Valid {
				backup = "  [backup]"
				if op.Encrypted {
					backup = "  [encrypted backup]"
				}
			}
			fmt.Printf("#%d  %-14s  %-7s  M%d A%d D%d  %s  %s%s\n",
				op.ID,
				humanize.Time(op.StartedAt),
				op.Status,
				op.Modified, op.Added, op.Deleted,
				duration,
				op.Path,
				backup,
			)
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show the changes written by one save",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid save id %q", args[0])
		}

		a, err := newApp("history show", args...)
		if err != nil {
			return err
		}
		defer a.Close()

		op, err := a.Service().SaveOperation(id)
		if err != nil {
			return err
		}
		if op == nil {
			return fmt.Errorf("save operation not found: %d", id)
		}
		fmt.Printf("Save #%d  %s\n", op.ID, op.Path)
		fmt.Printf("Started:  %s (%s)\n", op.StartedAt.Format("2006-01-02 15:04:05"), humanize.Time(op.StartedAt))
		fmt.Printf("Status:   %s\n", op.Status)
		if op.Error != "" {
			fmt.Printf("Error:    %s\n", op.Error)
		}

		changes, err := a.Service().SavedChanges(id)
		if err != nil {
			return err
		}
		for _, c := range changes {
			fmt.Printf("  %-8s %6d  %s\n", c.Category, c.RecordID, c.Name)
		}
		return nil
	},
}

// archive command
var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Inspect and restore pre-save backups",
}

var archiveListCmd = &cobra.Command{
	Use:   "list FILE",
	Short: "List archived versions of a roster file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("archive list", args...)
		if err != nil {
			return err
		}
		defer a.Close()

		versions, err := a.ListBackups(args[0])
		if err != nil {
			return err
		}
		if len(versions) == 0 {
			fmt.Println("No backups.")
			return nil
		}
		for _, v := range versions {
			fmt.Println(v)
		}
		return nil
	},
}

var archiveRestoreCmd = &cobra.Command{
	Use:   "restore ID",
	Short: "Restore the file as it was before save ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("output")
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid save id %q", args[0])
		}

		a, err := newApp("archive restore", args...)
		if err != nil {
			return err
		}
		defer a.Close()

		op, err := a.RestoreBackup(id, func() (string, error) {
			return readPassphrase("Passphrase: ")
		}, out, os.Stdout)
		if err != nil {
			a.Fail(err)
			return err
		}
		if out != "" {
			fmt.Fprintf(os.Stderr, "Restored backup of %s to %s\n", op.Path, out)
		}
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// keys subcommands
	keysCmd.AddCommand(keysInitCmd)
	keysCmd.AddCommand(keysShowCmd)

	// history subcommands
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of saves to show")

	// archive subcommands
	archiveCmd.AddCommand(archiveListCmd)
	archiveCmd.AddCommand(archiveRestoreCmd)
	archiveRestoreCmd.Flags().StringP("output", "o", "", "Write to this file instead of stdout")

	addFilterFlags(listCmd)
	listCmd.Flags().IntP("page", "p", 1, "Page to show")
	addFilterFlags(statsCmd)
	statsCmd.Flags().Int("top", 5, "Also list the top N players per attribute (0 to skip)")

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(archiveCmd)
}
