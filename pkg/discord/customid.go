package discord

import "strings"

// Proposal button actions.
const (
	ActionAccept = "accept"
	ActionReject = "reject"
)

const proposalPrefix = "proposal_"

// ProposalCustomID builds the custom ID of a proposal button, e.g.
// "proposal_accept_<token>".
func ProposalCustomID(action, token string) string {
	return proposalPrefix + action + "_" + token
}

// ParseProposalCustomID is the inverse of ProposalCustomID.
func ParseProposalCustomID(customID string) (action, token string, ok bool) {
	rest, found := strings.CutPrefix(customID, proposalPrefix)
	if !found {
		return "", "", false
	}
	action, token, found = strings.Cut(rest, "_")
	if !found || token == "" {
		return "", "", false
	}
	if action != ActionAccept && action != ActionReject {
		return "", "", false
	}
	return action, token, true
}
