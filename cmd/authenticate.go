/*
Copyright 2020 Google LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"html"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ademuri/spotify-genre-tools/internal/export"
	"github.com/ademuri/spotify-genre-tools/internal/spotify"
)

var authenticateCmd = &cobra.Command{
	Use:   "authenticate [email] --user=foo",
	Short: "Authorizes access to the user's Spotify library",
	Long: `Starts the Spotify authorization flow and stores the resulting token for the
user. The consent URL is printed, or emailed when an address is given. The
command waits for Spotify to redirect to --redirect_uri, which must be
registered for the app and reachable from the browser used.`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: requireUser,
	Run: func(cmd *cobra.Command, args []string) {
		var email string
		if len(args) == 1 {
			email = args[0]
		}
		timeout, _ := cmd.Flags().GetDuration("timeout")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		err := authenticate(ctx, viper.GetString("database"), viper.GetString("user"), email)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(authenticateCmd)

	authenticateCmd.Flags().Duration("timeout", 5*time.Minute, "How long to wait for the authorization redirect")
}

// notifier returns how the consent URL reaches the user: by email when an
// address is given, otherwise on stdout.
func notifier(email string) func(authURL string) error {
	if email == "" {
		return func(authURL string) error {
			fmt.Println("Open this URL to authenticate:", authURL)
			return nil
		}
	}

	mailer := export.SendgridMailer{
		APIKey: viper.GetString("sendgrid_api_key"),
		From:   viper.GetString("from"),
		To:     email,
	}
	return func(authURL string) error {
		if mailer.From == "" {
			return fmt.Errorf("required flag(s) \"from\" not set")
		}
		link := html.EscapeString(authURL)
		body := fmt.Sprintf(`<html><body>Click here to authenticate: <a href="%s">%s</a></body></html>`, link, link)
		if err := mailer.Send("Authenticate spotify-genre-tools", body); err != nil {
			return err
		}
		fmt.Println("Sent authentication email, waiting for the redirect")
		return nil
	}
}

func authenticate(ctx context.Context, dbPath string, user string, email string) error {
	if err := requireSpotifyCredentials(); err != nil {
		return err
	}

	st, err := openStore(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	redirectURI := viper.GetString("redirect_uri")
	auth := spotify.NewAuthenticator(viper.GetString("client_id"), viper.GetString("client_secret"), redirectURI)
	token, err := spotify.Authorize(ctx, auth, redirectURI, notifier(email))
	if err != nil {
		return fmt.Errorf("authorizing: %w", err)
	}

	if err := st.SaveToken(user, token); err != nil {
		return err
	}
	fmt.Printf("Successfully authenticated %q\n", user)
	return nil
}
