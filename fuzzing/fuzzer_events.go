package fuzzing

import (
	"github.com/crytic/tenet/chain"
	"github.com/crytic/tenet/events"
)

// FuzzerEvents defines event emitters for a Fuzzer.
type FuzzerEvents struct {
	// FuzzerStarting emits events when the Fuzzer found its invariant contracts and is about to start their
	// campaigns.
	FuzzerStarting events.EventEmitter[FuzzerStartingEvent]

	// FuzzerStopping emits events when every campaign of the Fuzzer ended.
	FuzzerStopping events.EventEmitter[FuzzerStoppingEvent]

	// CampaignStarting emits events when a Campaign was created and is about to run.
	CampaignStarting events.EventEmitter[CampaignStartingEvent]

	// CampaignFinished emits events when a Campaign ended, whether it succeeded or not.
	CampaignFinished events.EventEmitter[CampaignFinishedEvent]
}

// FuzzerStartingEvent describes an event where a Fuzzer is about to start its campaigns.
type FuzzerStartingEvent struct {
	// Fuzzer represents the instance of the Fuzzer for which the event occurred.
	Fuzzer *Fuzzer

	// Contracts are the invariant contracts a campaign will run for.
	Contracts []*chain.DeployedContract
}

// FuzzerStoppingEvent describes an event where every campaign of a Fuzzer ended.
type FuzzerStoppingEvent struct {
	// Fuzzer represents the instance of the Fuzzer for which the event occurred.
	Fuzzer *Fuzzer

	// Err describes the error which ended fuzzing, if any.
	Err error
}

// CampaignStartingEvent describes an event where a Campaign is about to run.
type CampaignStartingEvent struct {
	// Campaign represents the campaign which is starting.
	Campaign *Campaign
}

// CampaignFinishedEvent describes an event where a Campaign ended.
type CampaignFinishedEvent struct {
	// Campaign represents the campaign which ended.
	Campaign *Campaign

	// Result is the result of the campaign, or nil if it ended with an error.
	Result *CampaignResult

	// Err describes the error which ended the campaign, if any.
	Err error
}
