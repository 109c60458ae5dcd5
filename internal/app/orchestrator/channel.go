package orchestrator

import (
	"errors"

	"github.com/PointDesk/loyalty_client/internal/app/gateway"
)

// Channel identifies an independent request lane. Supersession is scoped to
// a single channel, never across channels.
type Channel string

const (
	ChannelLogin           Channel = "login"
	ChannelRegister        Channel = "register"
	ChannelFetchBalance    Channel = "fetchBalance"
	ChannelFetchRewardTier Channel = "fetchRewardTier"
	ChannelFetchHistory    Channel = "fetchHistory"
	ChannelEarnPoints      Channel = "earnPoints"
	ChannelRedeemPoints    Channel = "redeemPoints"
)

// defaultFailureMessage substitutes for a gateway error without a
// human-readable message.
var defaultFailureMessage = map[Channel]string{
	ChannelLogin:           "Login failed",
	ChannelRegister:        "Registration failed",
	ChannelFetchBalance:    "Failed to fetch balance",
	ChannelFetchRewardTier: "Failed to fetch reward tiers",
	ChannelFetchHistory:    "Failed to fetch history",
	ChannelEarnPoints:      "Failed to earn points",
	ChannelRedeemPoints:    "Failed to redeem points",
}

// successMessage holds the fixed confirmation text for user-initiated
// action channels. Passive read channels are absent: background refreshes
// succeed and fail quietly.
var successMessage = map[Channel]string{
	ChannelLogin:        "Login successful!",
	ChannelRegister:     "Registration successful!",
	ChannelEarnPoints:   "Successfully earned points!",
	ChannelRedeemPoints: "Successfully redeemed points!",
}

// isAction reports whether the channel represents a user-initiated action,
// which notifies on both success and failure.
func isAction(ch Channel) bool {
	_, ok := successMessage[ch]
	return ok
}

// failureMessage extracts the server-supplied message from err, falling
// back to the channel default when the gateway gave none.
func failureMessage(ch Channel, err error) string {
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) && gwErr.Message != "" {
		return gwErr.Message
	}
	return defaultFailureMessage[ch]
}
