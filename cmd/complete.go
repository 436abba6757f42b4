package cmd

import (
	"github.com/etnz/fxhub"
	"github.com/etnz/fxhub/docs"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Complete runs the shell completion of fxh when the shell asks for it, and
// exits. Otherwise it returns immediately.
//
// Install it in bash with:
//
//	complete -C fxh fxh
func Complete(name string) {
	completion(fxhub.DefaultRegistry()).Complete(name)
}

func completion(reg *fxhub.Registry) *complete.Command {
	codes := predict.Set(reg.Codes())
	topics, _ := docs.GetAllTopics()
	trade := &complete.Command{Flags: map[string]complete.Predictor{
		"currency": codes,
		"amount":   predict.Something,
	}}
	account := &complete.Command{Flags: map[string]complete.Predictor{
		"username": predict.Something,
		"password": predict.Something,
	}}
	return &complete.Command{
		Sub: map[string]*complete.Command{
			"register":       account,
			"login":          account,
			"logout":         {},
			"passwd":         {Flags: map[string]complete.Predictor{"old": predict.Something, "new": predict.Something}},
			"show-portfolio": {Flags: map[string]complete.Predictor{"base": codes}},
			"buy":            trade,
			"sell":           trade,
			"get-rate":       {Flags: map[string]complete.Predictor{"from": codes, "to": codes}},
			"update-rates":   {},
			"history":        {Flags: map[string]complete.Predictor{"n": predict.Something}, Args: codes},
			"currencies":     {},
			"topic":          {Args: predict.Set(append(topics, "*"))},
			"shell":          {},
			"help":           {},
			"flags":          {},
			"commands":       {},
		},
		Flags: map[string]complete.Predictor{
			"config":   predict.Files("*"),
			"data-dir": predict.Dirs("*"),
			"v":        predict.Nothing,
		},
	}
}
