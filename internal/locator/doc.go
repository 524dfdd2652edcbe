// Package locator answers "where is NAME" requests.
//
// A Locator owns the collaborators of a lookup (HTTP client, login
// session settings, location fetcher, reverse geocoder and disclosure
// policy), runs the lookup pipeline for a name and turns the outcome into
// the natural-language answer. It is the boundary where every error is
// reduced to one of two fixed messages; the details are only logged.
//
//	loc, err := locator.FromConfig(cfg, logger)
//	if err != nil {
//		return err
//	}
//	fmt.Println(loc.Answer(ctx, "alice"))
package locator
