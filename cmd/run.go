package cmd

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pitstop-ai/pitsim/sim"
)

func newRunCmd() *cobra.Command {
	var requestPath, outPath string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate the candidate strategies of a request file",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildSimRequest(cmd.Context(), requestPath)
			if err != nil {
				return err
			}
			logrus.Infof("Starting simulation: base lap %d, %d candidates, %d samples, seed %d",
				req.BaseLap, len(req.Candidates), req.Config.MCSamples, req.Seed)

			startTime := time.Now()
			res, err := sim.Simulate(req, sim.WithParallelism(parallelism))
			if err != nil {
				return err
			}
			logrus.Infof("Simulation complete in %s", time.Since(startTime))
			return writeOutput(outPath, res)
		},
	}
	addLapFlags(cmd)
	cmd.Flags().StringVar(&requestPath, "request", "", "Request file (JSON or YAML, run_sim shape)")
	cmd.Flags().StringVar(&outPath, "out", "", "Write the JSON result here instead of stdout")
	_ = cmd.MarkFlagRequired("request")
	return cmd
}

func newBurstCmd() *cobra.Command {
	var requestPath, outPath string
	cmd := &cobra.Command{
		Use:   "burst",
		Short: "High-accuracy run with the maximum sample count; reports the best candidate",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildSimRequest(cmd.Context(), requestPath)
			if err != nil {
				return err
			}
			logrus.Infof("Running burst simulation with %d Monte Carlo samples", sim.BurstMCSamples)
			summary, err := sim.Burst(req, sim.WithParallelism(parallelism))
			if err != nil {
				return err
			}
			logrus.WithFields(logrus.Fields{
				"pit_lap":    summary.Best.PitLap,
				"compound":   summary.Best.Compound,
				"gap_at_5":   summary.Best.MedianGapAfter5Laps,
				"confidence": summary.Confidence,
			}).Info("Burst simulation complete")
			return writeOutput(outPath, summary)
		},
	}
	addLapFlags(cmd)
	cmd.Flags().StringVar(&requestPath, "request", "", "Request file (JSON or YAML, run_sim shape)")
	cmd.Flags().StringVar(&outPath, "out", "artifacts/sim_burst.json", "Where to write the burst summary")
	_ = cmd.MarkFlagRequired("request")
	return cmd
}
