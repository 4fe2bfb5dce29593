package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"budget-reconciler/cmd/reconciler/config"
	"budget-reconciler/internal/models"
	"budget-reconciler/internal/parsers"
	"budget-reconciler/internal/reconciler"
	"budget-reconciler/internal/reporter"
	"budget-reconciler/internal/ynab"
	"budget-reconciler/pkg/errors"
)

// Flags for the compare command
var (
	budgetFile  string
	budgetName  string
	tokenFile   string
	account     string
	bankFiles   []string
	bankFormats []string
	filterDate  string

	dateWindow          int
	similarityThreshold int
	includePending      bool

	outputFormat string
	outputFile   string
)

// compareCmd represents the compare command
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare a budget ledger with bank statements",
	Long: `Compare matches the transactions of one budget account against one or
more bank statement exports and reports the records unique to each side.

The budget side comes either from a register export file (--budget-file) or
from the budgeting tool's API (--budget-name with --token-file). The bank
side is one or more statement exports, each with its format named in the
matching position of --bank-format.

Examples:
  # Register export against a Swedbank statement
  reconciler compare --budget-file register.tsv --account Checking \
    --bank-file statement.csv --bank-format swedbank --filter-date 2023-03-01

  # API budget against two statements
  reconciler compare --budget-name Household --token-file ~/.ynab-token \
    --account Checking \
    --bank-file swedbank.csv --bank-format swedbank \
    --bank-file ica.csv --bank-format ica \
    --filter-date 2023-03-01

  # Machine-readable report
  reconciler compare --budget-file register.tsv --account Checking \
    --bank-file statement.csv --bank-format swedbank \
    --filter-date 2023-03-01 --output-format csv --output-file diff.csv`,

	PreRunE: validateCompareFlags,
	RunE:    runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)

	// Budget source flags
	compareCmd.Flags().StringVarP(&budgetFile, "budget-file", "B", "", "path to the register export file")
	compareCmd.Flags().StringVar(&budgetName, "budget-name", "", "budget name to fetch from the API instead of a file")
	compareCmd.Flags().StringVar(&tokenFile, "token-file", "", "file containing the API access token")
	compareCmd.Flags().StringVarP(&account, "account", "a", "", "account name in the budget (required)")

	// Bank source flags
	compareCmd.Flags().StringSliceVarP(&bankFiles, "bank-file", "b", []string{}, "path to a bank statement export (repeatable)")
	compareCmd.Flags().StringSliceVar(&bankFormats, "bank-format", []string{}, fmt.Sprintf("statement format per bank file: %s", strings.Join(parsers.SupportedFormats(), ", ")))

	// Filtering and matching flags
	compareCmd.Flags().StringVar(&filterDate, "filter-date", "", "ignore transactions before this date, YYYY-MM-DD (required)")
	compareCmd.Flags().IntVar(&dateWindow, "date-window", 7, "maximum days between matching transactions")
	compareCmd.Flags().IntVar(&similarityThreshold, "similarity-threshold", 65, "description similarity required for a match (0-100, exclusive)")
	compareCmd.Flags().BoolVar(&includePending, "include-pending", false, "include not-yet-booked bank transactions")

	// Output flags
	compareCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", fmt.Sprintf("output format: %s", strings.Join(reporter.SupportedFormats(), ", ")))
	compareCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")

	compareCmd.MarkFlagRequired("account")
	compareCmd.MarkFlagRequired("bank-file")
	compareCmd.MarkFlagRequired("filter-date")

	// Bind flags to viper
	viper.BindPFlag("budget-file", compareCmd.Flags().Lookup("budget-file"))
	viper.BindPFlag("budget-name", compareCmd.Flags().Lookup("budget-name"))
	viper.BindPFlag("token-file", compareCmd.Flags().Lookup("token-file"))
	viper.BindPFlag("account", compareCmd.Flags().Lookup("account"))
	viper.BindPFlag("bank-file", compareCmd.Flags().Lookup("bank-file"))
	viper.BindPFlag("bank-format", compareCmd.Flags().Lookup("bank-format"))
	viper.BindPFlag("filter-date", compareCmd.Flags().Lookup("filter-date"))
	viper.BindPFlag("date-window", compareCmd.Flags().Lookup("date-window"))
	viper.BindPFlag("similarity-threshold", compareCmd.Flags().Lookup("similarity-threshold"))
	viper.BindPFlag("include-pending", compareCmd.Flags().Lookup("include-pending"))
	viper.BindPFlag("output-format", compareCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", compareCmd.Flags().Lookup("output-file"))
}

func validateCompareFlags(cmd *cobra.Command, args []string) error {
	// Get values from viper (allows override from config file)
	budgetFile = viper.GetString("budget-file")
	budgetName = viper.GetString("budget-name")
	tokenFile = viper.GetString("token-file")
	account = viper.GetString("account")
	bankFiles = viper.GetStringSlice("bank-file")
	bankFormats = viper.GetStringSlice("bank-format")
	filterDate = viper.GetString("filter-date")
	dateWindow = viper.GetInt("date-window")
	similarityThreshold = viper.GetInt("similarity-threshold")
	includePending = viper.GetBool("include-pending")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")

	// Exactly one budget source
	if budgetFile == "" && budgetName == "" {
		return fmt.Errorf("either budget-file or budget-name is required")
	}
	if budgetFile != "" && budgetName != "" {
		return fmt.Errorf("budget-file and budget-name are mutually exclusive")
	}
	if budgetName != "" && tokenFile == "" {
		return fmt.Errorf("token-file is required when fetching the budget from the API")
	}

	if account == "" {
		return fmt.Errorf("account is required")
	}
	if len(bankFiles) == 0 {
		return fmt.Errorf("at least one bank-file is required")
	}

	// A single format applies to every bank file; otherwise pairwise.
	if len(bankFormats) == 0 {
		return fmt.Errorf("bank-format is required")
	}
	if len(bankFormats) != 1 && len(bankFormats) != len(bankFiles) {
		return fmt.Errorf("got %d bank-format values for %d bank-file values", len(bankFormats), len(bankFiles))
	}

	if budgetFile != "" {
		if err := validateFileExists(budgetFile, "budget register file"); err != nil {
			return err
		}
	}
	if tokenFile != "" {
		if err := validateFileExists(tokenFile, "token file"); err != nil {
			return err
		}
	}
	for i, bankFile := range bankFiles {
		if err := validateFileExists(bankFile, fmt.Sprintf("bank file %d", i+1)); err != nil {
			return err
		}
	}

	if filterDate == "" {
		return fmt.Errorf("filter-date is required")
	}
	if _, err := time.Parse("2006-01-02", filterDate); err != nil {
		return fmt.Errorf("invalid filter date format. Use YYYY-MM-DD: %w", err)
	}

	if dateWindow < 0 {
		return fmt.Errorf("date window cannot be negative")
	}
	if similarityThreshold < 0 || similarityThreshold > 100 {
		return fmt.Errorf("similarity threshold must be between 0 and 100")
	}

	validFormats := map[string]bool{"console": true, "json": true, "csv": true}
	if !validFormats[outputFormat] {
		return fmt.Errorf("invalid output format '%s'. Valid formats: %s", outputFormat, strings.Join(reporter.SupportedFormats(), ", "))
	}

	// Validate output file directory exists if specified
	if outputFile != "" {
		dir := filepath.Dir(outputFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}

	return nil
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}

	// Check if file is readable
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("%s is not readable: %w", description, err)
	}
	file.Close()

	return nil
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cutoff, _ := time.Parse("2006-01-02", filterDate)

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Starting comparison...\n")
		fmt.Fprintf(os.Stderr, "Account: %s\n", account)
		fmt.Fprintf(os.Stderr, "Bank files: %s\n", strings.Join(bankFiles, ", "))
		fmt.Fprintf(os.Stderr, "Filter date: %s\n", filterDate)
	}

	budgetRecords, budgetLabel, err := loadBudgetRecords(ctx, cutoff)
	if err != nil {
		return err
	}

	service, err := reconciler.NewService(config.CreateReconcilerConfig(dateWindow, similarityThreshold))
	if err != nil {
		return fmt.Errorf("failed to create comparison service: %w", err)
	}

	// Determine output destination
	output := os.Stdout
	if outputFile != "" {
		output, err = os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer output.Close()
	}

	for i, bankFile := range bankFiles {
		format := bankFormats[0]
		if len(bankFormats) > 1 {
			format = bankFormats[i]
		}

		bankRecords, stats, err := loadBankRecords(bankFile, format, cutoff)
		if err != nil {
			return err
		}
		if viper.GetBool("verbose") {
			fmt.Fprintf(os.Stderr, "%s: %s\n", bankFile, stats)
		}
		if err := ensureCleanParse(bankFile, stats); err != nil {
			return err
		}

		result, err := service.Compare(budgetRecords, bankRecords)
		if err != nil {
			return err
		}

		reporterConfig := config.CreateReporterConfig(outputFormat, budgetLabel, bankSourceLabel(bankFile, format), output)
		gen, err := reporter.NewReporter(reporterConfig)
		if err != nil {
			return fmt.Errorf("failed to create reporter: %w", err)
		}
		if err := gen.Render(result); err != nil {
			return fmt.Errorf("failed to render report: %w", err)
		}
	}

	return nil
}

// loadBudgetRecords reads the budget side from either the register export or
// the API, depending on the flags.
func loadBudgetRecords(ctx context.Context, cutoff time.Time) ([]*models.TransactionRecord, string, error) {
	if budgetName != "" {
		token, err := ynab.ReadTokenFile(tokenFile)
		if err != nil {
			return nil, "", err
		}
		client, err := ynab.NewClient(config.CreateClientConfig(token))
		if err != nil {
			return nil, "", err
		}
		records, err := client.FetchRecords(ctx, budgetName, account, cutoff)
		if err != nil {
			return nil, "", err
		}
		return records, budgetName, nil
	}

	parser, err := parsers.NewRegisterParser(config.CreateRegisterConfig(account, cutoff))
	if err != nil {
		return nil, "", err
	}
	records, stats, err := parser.Parse(budgetFile)
	if err != nil {
		return nil, "", err
	}
	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "%s: %s\n", budgetFile, stats)
	}
	if err := ensureCleanParse(budgetFile, stats); err != nil {
		return nil, "", err
	}
	return records, "budget", nil
}

// ensureCleanParse fails the run when a source file had malformed rows. A
// comparison built on a ledger with silently dropped rows would report those
// rows as missing from the other side.
func ensureCleanParse(path string, stats *parsers.ParseStats) error {
	if stats == nil || !stats.HasErrors() {
		return nil
	}
	first := stats.Errors[0]
	return errors.ParseError(errors.CodeInvalidData, path, first.Line, first.Field, first.Value, first).
		WithContext("error_count", len(stats.Errors)).
		WithSuggestion("Fix or remove the malformed rows in the export and rerun")
}

// loadBankRecords parses one bank statement export.
func loadBankRecords(bankFile, format string, cutoff time.Time) ([]*models.TransactionRecord, *parsers.ParseStats, error) {
	parser, err := config.CreateBankParser(format, cutoff, includePending)
	if err != nil {
		return nil, nil, err
	}
	return parser.Parse(bankFile)
}

// bankSourceLabel names a bank side in the report.
func bankSourceLabel(bankFile, format string) string {
	base := filepath.Base(bankFile)
	if ext := filepath.Ext(base); ext != "" {
		base = base[:len(base)-len(ext)]
	}
	return fmt.Sprintf("%s (%s)", format, base)
}
