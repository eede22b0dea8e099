package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	log "github.com/golang/glog"
	jsoniter "github.com/json-iterator/go"

	"github.com/joincivil/content-moderation-adapter/pkg/helpers"
	"github.com/joincivil/content-moderation-adapter/pkg/model"
	"github.com/joincivil/content-moderation-adapter/pkg/moderation"
	"github.com/joincivil/content-moderation-adapter/pkg/syncmain"
	"github.com/joincivil/content-moderation-adapter/pkg/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type flags struct {
	addGuideline bool
	moderate     bool
	batch        string
	list         string
	counts       bool

	guidelineID string
	text        string
	postID      string
	content     string
	outcome     string
	page        int64
	perPage     int64
}

func parseFlags(config *utils.ModerationConfig) *flags {
	f := &flags{}
	flag.BoolVar(&f.addGuideline, "add-guideline", false, "Add the guideline given by -guideline and -text")
	flag.BoolVar(&f.moderate, "moderate", false, "Moderate -post with -content against -guideline")
	flag.StringVar(&f.batch, "batch", "", "Moderate every post in a JSON file of {id, content} against -guideline")
	flag.StringVar(&f.list, "list", "", "List guidelines, results, page or post")
	flag.BoolVar(&f.counts, "counts", false, "Print outcome counts when listing results")
	flag.StringVar(&f.guidelineID, "guideline", "", "Guideline id")
	flag.StringVar(&f.text, "text", "", "Guideline text")
	flag.StringVar(&f.postID, "post", "", "Post id")
	flag.StringVar(&f.content, "content", "", "Post content")
	flag.StringVar(&f.outcome, "outcome", "", "Only list results with this outcome")
	flag.Int64Var(&f.page, "page", 1, "Page to list")
	flag.Int64Var(&f.perPage, "per-page", 10, "Results per page")
	flag.Usage = func() {
		flag.PrintDefaults()
		config.OutputUsage()
		os.Exit(0)
	}
	flag.Parse()
	return f
}

func main() {
	config := &utils.ModerationConfig{}
	f := parseFlags(config)

	err := config.PopulateFromEnv()
	if err != nil {
		config.OutputUsage()
		log.Errorf("Invalid moderation config: err: %v\n", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	syncmain.SetupKillNotify(cancel)
	backend, err := helpers.Backend(ctx, config)
	if err != nil {
		log.Errorf("Error connecting to endpoint: err: %v", err)
		os.Exit(2)
	}
	defer backend.Close()
	client := helpers.Client(backend, config)

	out, err := run(ctx, client, f)
	if err != nil {
		log.Errorf("Error: %v", err)
		log.Flush()
		os.Exit(1)
	}
	log.Flush()
	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		log.Errorf("Error encoding output: err: %v", err)
		os.Exit(1)
	}
	fmt.Println(string(encoded))
}

func run(ctx context.Context, client *moderation.Client, f *flags) (interface{}, error) {
	switch {
	case f.addGuideline:
		return client.AddGuideline(ctx, f.guidelineID, f.text)
	case f.moderate:
		return client.ModerateContent(ctx, f.postID, f.content, f.guidelineID)
	case f.batch != "":
		return moderateBatch(ctx, client, f)
	}

	switch f.list {
	case "guidelines":
		if f.guidelineID != "" {
			return client.Guideline(ctx, f.guidelineID)
		}
		return client.Guidelines(ctx)
	case "results":
		filter := &model.ModerationFilter{
			Outcome:     model.Outcome(f.outcome),
			PostID:      f.postID,
			GuidelineID: f.guidelineID,
		}
		results, err := client.FilteredModerationResults(ctx, filter)
		if err != nil || !f.counts {
			return results, err
		}
		return model.CountOutcomes(results), nil
	case "page":
		return client.ModerationResultsPaginated(ctx, f.page, f.perPage)
	case "post":
		if f.guidelineID != "" {
			return client.ModerationResult(ctx, f.postID, f.guidelineID)
		}
		return client.PostModerationResults(ctx, f.postID)
	}
	return nil, fmt.Errorf("Nothing to do, use -add-guideline, -moderate, -batch or -list")
}

type batchOutput struct {
	PostID  string                    `json:"post_id"`
	Receipt *model.TransactionReceipt `json:"receipt,omitempty"`
	Error   string                    `json:"error,omitempty"`
}

func moderateBatch(ctx context.Context, client *moderation.Client, f *flags) (interface{}, error) {
	data, err := os.ReadFile(f.batch)
	if err != nil {
		return nil, fmt.Errorf("Error reading batch file: %v", err)
	}
	posts := []*model.Post{}
	err = json.Unmarshal(data, &posts)
	if err != nil {
		return nil, fmt.Errorf("Error decoding batch file: %v", err)
	}
	out := []*batchOutput{}
	for _, item := range client.ModerateBatch(ctx, f.guidelineID, posts) {
		o := &batchOutput{PostID: item.PostID, Receipt: item.Receipt}
		if item.Err != nil {
			o.Error = item.Err.Error()
		}
		out = append(out, o)
	}
	return out, nil
}
