// Command medcost-predict prints the routed prediction for one applicant.
//
//	medcost-predict --models.dir models --age 45 --bmi 31 --children 2 --sex male --smoker yes --region southwest
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/ezoic/medcost/config"
	"github.com/ezoic/medcost/insurance"
	"github.com/ezoic/medcost/router"
)

func main() {
	fs := pflag.NewFlagSet("medcost-predict", pflag.ExitOnError)
	configPath := fs.String("config", "", "YAML configuration file")
	fs.String("models.dir", "", "artifact directory")
	fs.String("server.currency", "", "ISO 4217 code of the reported charge")
	age := fs.Int("age", 30, "age in years")
	bmi := fs.Float64("bmi", 25, "body mass index")
	children := fs.Int("children", 1, "number of children")
	sex := fs.String("sex", "male", "male or female")
	smoker := fs.String("smoker", "yes", "yes or no")
	region := fs.String("region", "northeast", "northeast, northwest, southeast or southwest")
	general := fs.Bool("general", false, "force the general (all data) model")
	asJSON := fs.Bool("json", false, "print the full prediction as JSON")
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load(*configPath, fs)
	if err != nil {
		fail(err, 2)
	}
	cfg.Log.Level = "warn"
	cfg.SetupLogging()

	reg, err := router.LoadRegistry(cfg.Models.Dir)
	if err != nil {
		fail(err, 1)
	}

	rec := insurance.Record{
		Age:      *age,
		BMI:      *bmi,
		Children: *children,
		Sex:      insurance.Sex(*sex),
		Smoker:   insurance.Smoker(*smoker),
		Region:   insurance.Region(*region),
	}
	p, err := router.New(reg, router.WithCurrency(cfg.Currency())).
		Predict(context.Background(), router.Request{Record: rec, Override: *general})
	if err != nil {
		fail(err, 1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(map[string]interface{}{
			"segment":   p.Segment,
			"label":     p.Label,
			"raw":       p.Raw,
			"features":  p.Features,
			"formatted": p.Formatted(),
		})
		return
	}
	fmt.Fprintln(os.Stdout, p.Label)
	fmt.Fprintf(os.Stdout, "Estimated Insurance Cost: %s\n", p.Formatted())
}

func fail(err error, code int) {
	fmt.Fprintf(os.Stderr, "medcost-predict: %v\n", err)
	os.Exit(code)
}
