// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/seg2mseed/pkg/types"
)

var dhCmd = &cobra.Command{
	Use:   "dh",
	Short: "Generate downhole (DH) vertical and lateral outputs",
	Long: `DH writes DH_Channel_V_1.seg2.mseed from channel 1 of the *1.seg2
recordings, then the X and Y outputs of the *2.seg2 and *3.seg2 recordings.
A failed vertical phase does not stop the lateral phase.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd, types.SurveyDH)
	},
}

func init() {
	addGenerateFlags(dhCmd)
	rootCmd.AddCommand(dhCmd)
}
