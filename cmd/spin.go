package cmd

import (
	"fmt"
	"math/rand"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cmmiller26/ai-fun-token-wheel/config"
	"github.com/cmmiller26/ai-fun-token-wheel/session"
)

var (
	spinPrimary   float64
	spinSecondary float64
	spinMaxLength int
	spinSeed      int64
	spinCorpus    string
	spinVerbose   bool
)

var spinCmd = &cobra.Command{
	Use:   "spin <prompt>",
	Short: "Spin the wheel in the terminal",
	Long: `Run the full generation loop on a prompt: sample one token per spin and
advance until the model emits end-of-sequence or the length limit is hit.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSpin,
}

func init() {
	spinCmd.Flags().Float64Var(&spinPrimary, "primary", 0.1, "Primary selection threshold")
	spinCmd.Flags().Float64Var(&spinSecondary, "secondary", 0.05, "Secondary selection threshold")
	spinCmd.Flags().IntVar(&spinMaxLength, "max-length", 50, "Stop once the context reaches this many tokens")
	spinCmd.Flags().Int64Var(&spinSeed, "seed", 0, "Random seed (0 = time-based)")
	spinCmd.Flags().StringVar(&spinCorpus, "corpus", "", "Path to a training corpus (default: embedded)")
	spinCmd.Flags().BoolVar(&spinVerbose, "verbose", false, "Print per-spin details to stderr")
}

func runSpin(_ *cobra.Command, args []string) error {
	prompt := strings.Join(args, " ")

	mdl, err := loadModel(config.ModelConfig{CorpusPath: spinCorpus})
	if err != nil {
		return fmt.Errorf("init model: %w", err)
	}

	var rng *rand.Rand
	if spinSeed != 0 {
		rng = rand.New(rand.NewSource(spinSeed))
	}
	mgr := session.NewManager(mdl, session.Options{
		MaxLength: spinMaxLength,
		Rand:      rng,
	})

	started, err := mgr.CreateSession(prompt, spinPrimary, spinSecondary)
	if err != nil {
		return err
	}
	defer func() { _ = mgr.DeleteSession(started.SessionID) }()

	fmt.Print(prompt)
	for {
		res, err := mgr.SampleCurrent(started.SessionID)
		if err != nil {
			return err
		}
		if spinVerbose {
			fmt.Fprintf(os.Stderr, "\nspin: token=%q id=%d p=%.4f angle=%.1f other=%v\n",
				res.Token, res.TokenID, res.Probability, res.TargetAngle, res.IsOther)
		}

		adv, err := mgr.Advance(started.SessionID, res.TokenID)
		if err != nil {
			return err
		}
		fmt.Print(adv.SelectedToken)
		if !adv.ShouldContinue {
			break
		}
	}
	fmt.Println()
	return nil
}
