/*
Package log provides structured logging for the coordination core using
zerolog.

A single global Logger is configured once via Init and shared by every
package. Component loggers (WithAgentID, WithProposalID, WithAlgorithm,
WithConsensus) attach a contextual field without mutating the global
instance.

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})
	log.WithConsensus(p.ProposalID, alg).Info().Msg("consensus requested")
*/
package log
