// Package plan maps payment-provider price identifiers to credit grants.
//
// Two static tables are loaded once at process start and are read-only
// afterwards: subscription plans (a tier plus its monthly credit and bonus
// grant) and one-time packages (a bonus grant only; packages never grant
// recurring credit).
//
// # Loading
//
// Tables come from a Source. EnvSource reads the provider price IDs from the
// environment and attaches the built-in grant amounts; FileSource reads a
// YAML document describing arbitrary tables. Both validate eagerly: a price
// ID that does not carry the provider's "price_" prefix, an unknown tier, or
// a non-positive grant fails table construction, so misconfiguration stops
// startup rather than surfacing on the first webhook.
//
//	src := plan.NewEnvSource()
//	table, err := src.Load(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	p, err := table.PlanByPriceID("price_1RadPHQpTNcDfTEvSiglPuVw")
//
// # Lookup contract
//
// Lookups are O(1) and never mutate the table. An empty price ID yields
// ErrEmptyPriceID (a caller bug), an unknown one ErrPlanNotFound or
// ErrPackageNotFound (stale configuration). Both are sentinel errors for
// errors.Is matching.
package plan
