// Package cost provides pricing information and cost calculation for
// provider model usage.
//
// The main types are [ModelCost] for per-million-token USD rates
// (including cache read and write rates where providers publish them),
// [Cost] for the per-request breakdown it produces, [Registry] for
// looking prices up by "provider/model" identifier, and [Tracker] for
// accumulating tokens and spend across many requests.
//
// [DefaultRegistry] ships a built-in price table; prices drift, so treat
// it as a starting point and override entries with [Registry.Set].
package cost
