package cmd

import (
	"github.com/spf13/cobra"

	"github.com/spigell/jobboard-assistant/internal/matching"
	"github.com/spigell/jobboard-assistant/internal/server"
	"github.com/spigell/jobboard-assistant/internal/utils"
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate a skill match locally without the model",
	RunE: func(cmd *cobra.Command, _ []string) error {
		candidate := utils.SplitList(cmd.Flag("candidate").Value.String())
		job := utils.SplitList(cmd.Flag("job").Value.String())

		matched, missing := matching.Overlap(candidate, job)

		return printJSON(cmd.OutOrStdout(), &server.EstimateResult{
			MatchScore:    matching.Estimate(candidate, job),
			MatchedSkills: matched,
			MissingSkills: missing,
		})
	},
}

func init() {
	rootCmd.AddCommand(estimateCmd)

	estimateCmd.Flags().String("candidate", "", "comma separated candidate skills")
	estimateCmd.Flags().String("job", "", "comma separated job skills")
}
