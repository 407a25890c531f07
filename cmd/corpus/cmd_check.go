package main

import (
	"fmt"
	"io"
	"strings"

	"nyaydarpan-backend/config"
	"nyaydarpan-backend/models"
	"nyaydarpan-backend/service"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var checkFlags struct {
	limit   int
	context string
	pretty  bool
}

var checkCmd = &cobra.Command{
	Use:   "check <company name>",
	Short: "Run a Karma Check against the corpus and print the score",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCheck,
}

func init() {
	f := checkCmd.Flags()
	f.IntVar(&checkFlags.limit, "limit", 0, "Maximum cases to consider (default from KARMA_DEFAULT_LIMIT)")
	f.StringVar(&checkFlags.context, "context", "", "Free text describing the contract")
	f.BoolVar(&checkFlags.pretty, "pretty", false, "Print a readable summary instead of JSON")
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	policy, err := config.LoadPolicy(a.cfg.ScoringPolicyFile)
	if err != nil {
		return err
	}

	karma := service.NewKarmaService(
		service.KarmaWithRetriever(service.NewCaseRetriever(a.cases, a.index(), policy.Retrieval)),
		service.KarmaWithScorer(service.NewRiskScorer(policy)),
		service.KarmaWithDeadline(a.cfg.KarmaDeadline),
		service.KarmaWithLimits(a.cfg.KarmaDefaultLimit, a.cfg.KarmaMaxLimit),
	)
	limit := checkFlags.limit
	if limit == 0 {
		limit = karma.DefaultLimit()
	}

	score, err := karma.CheckCounterparty(ctx, strings.Join(args, " "), checkFlags.context, limit)
	if err != nil {
		return err
	}
	if checkFlags.pretty {
		printScore(cmd.OutOrStdout(), score)
		return nil
	}
	return printJSON(cmd.OutOrStdout(), score)
}

var tierColor = map[models.RiskLevel]*color.Color{
	models.RiskHigh:    color.New(color.FgRed, color.Bold),
	models.RiskMedium:  color.New(color.FgYellow, color.Bold),
	models.RiskLow:     color.New(color.FgGreen, color.Bold),
	models.RiskUnknown: color.New(color.FgWhite, color.Bold),
}

func printScore(w io.Writer, score *models.KarmaScore) {
	tier := tierColor[score.RiskLevel].SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(w, "%s  %s (%d/100)\n", bold(score.CounterpartyName), tier(strings.ToUpper(string(score.RiskLevel))), score.NumericScore)
	fmt.Fprintln(w, score.SummaryText)
	if len(score.CasesConsidered) > 0 {
		fmt.Fprintln(w)
		for i, c := range score.CasesConsidered {
			fmt.Fprintf(w, "%2d. %s [%s, %s] weight %.2f\n", i+1, c.Title, c.Outcome, c.FiledDate.Format("2006-01-02"), c.CaseWeight)
		}
	}
	if len(score.Recommendations) > 0 {
		fmt.Fprintln(w)
		for _, r := range score.Recommendations {
			fmt.Fprintf(w, "  - %s\n", r)
		}
	}
}
