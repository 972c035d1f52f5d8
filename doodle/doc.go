/*
Package doodle is a small client for the doodle.com REST API.

It authenticates with OAuth1 consumer credentials, creates TEXT and DATE polls
and reads polls back as generic maps:

	client := doodle.NewClient(key, secret, doodle.WithLogger(logger))

	res, err := client.CreatePoll(ctx, doodle.Poll{
		Title:       "Team lunch",
		Description: "Where do we go?",
		Initiator:   doodle.Initiator{Name: "Ann"},
		Options:     doodle.TextOptions("Pizza", "Sushi"),
	})
	if err != nil {
		return err
	}
	fmt.Println(doodle.AdminURL(res.ID(), res.Key))

The OAuth1 token exchange happens on the first request and its result is kept
for the lifetime of the Client. Non-2xx answers are returned as *StatusError;
nothing is retried.
*/
package doodle
