// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/seg2mseed/pkg/types"
)

var chCmd = &cobra.Command{
	Use:   "ch",
	Short: "Generate cross-hole (CH) lateral outputs",
	Long: `CH reads every *2.seg2 and *3.seg2 recording in --input and writes
CH_Channel_X_<ext>.mseed and CH_Channel_Y_<ext>.mseed per extension into
--output. An extension whose traces disagree on sampling rate is skipped and
logged.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd, types.SurveyCH)
	},
}

func init() {
	addGenerateFlags(chCmd)
	rootCmd.AddCommand(chCmd)
}
