// Package authenticator wires the components of a TOTP authenticator into an App.
//
// Items are stored encrypted under a per-install key and decrypted only inside
// the repository. The item list combines locally stored codes with the items a
// password manager shares, and every code is regenerated when its period ends.
//
// Configuration comes from the environment:
//
//	cfg, err := authenticator.LoadConfig(config.WithEnvFiles(".env"))
//	if err != nil {
//		return err
//	}
//
//	app, err := authenticator.New(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer app.Close()
//
//	for res := range app.Repository.ItemList(ctx) {
//		// render res.Sections
//	}
//
// The store backend (memory, SQLite, Postgres), the shared item source (Redis)
// and the export target (local directory, S3) are selected by Config. The
// cmd/authenticator command exposes the App on the command line.
package authenticator
