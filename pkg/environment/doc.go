// Package environment names the deployment environment (development, staging,
// production) and carries it through request contexts.
//
// The value normally comes from APP_ENV:
//
//	env := environment.Parse(os.Getenv("APP_ENV"))
//	r.Use(environment.Middleware(env))
//
// Parse accepts the short aliases "prod" and "stage" and falls back to
// Development for anything it does not recognise.
package environment
