package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/playforge/carton/pkg/builder"
	"github.com/playforge/carton/pkg/carton"
	"github.com/playforge/carton/pkg/common"
	"github.com/playforge/carton/pkg/publish"
)

const defaultConfigPath = "carton.yaml"

func main() {
	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "build":
		buildCommand()
	case "embed":
		embedCommand()
	case "project":
		projectCommand()
	case "ls":
		lsCommand()
	case "extract":
		extractCommand()
	case "publish":
		publishCommand()
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: cartonctl <command> [flags]

Commands:
  build    Build a player executable from a project file and media directory
  embed    Embed a project file and media into an existing executable
  project  Print the project JSON embedded in an executable
  ls       List assets embedded in an executable
  extract  Extract one embedded asset to a file
  publish  Upload a built executable to S3
`)
}

func loadConfig(path string) builder.Config {
	cfg, err := builder.LoadConfig(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Fatal().Err(err).Str("path", path).Msg("unable to read config")
		}
		cfg = builder.DefaultConfig()
	}
	if err := carton.SetLogLevel(cfg.LogLevel); err != nil {
		log.Fatal().Err(err).Msg("invalid log level in config")
	}
	return cfg
}

func buildCommand() {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	projectFile := fs.String("project", "", "Path to the project JSON file")
	output := fs.String("output", "", "Output executable path")
	template := fs.String("template", "", "Player template executable (overrides config)")
	icon := fs.String("icon", "", "Icon file to patch into the executable")
	loose := fs.Bool("loose", false, "Write project.json beside the output instead of embedding")
	configPath := fs.String("config", defaultConfigPath, "Builder config file")
	fs.Parse(os.Args[2:])

	if *projectFile == "" || *output == "" {
		fs.Usage()
		os.Exit(1)
	}

	cfg := loadConfig(*configPath)

	projectJSON, err := os.ReadFile(*projectFile)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to read project file")
	}

	media, err := mediaFromArgs(fs.Args())
	if err != nil {
		log.Fatal().Err(err).Msg("invalid media argument")
	}

	progress := make(chan builder.Progress, 16)
	go func() {
		for p := range progress {
			log.Info().Str("stage", string(p.Stage)).Msg(p.Message)
		}
	}()

	b := builder.NewBuilder(cfg)
	out, err := b.Build(context.Background(), builder.BuildOptions{
		ProjectJSON:  string(projectJSON),
		Media:        media,
		OutputPath:   *output,
		TemplatePath: *template,
		IconPath:     *icon,
		LooseProject: *loose,
		ProgressChan: progress,
	})
	close(progress)
	if err != nil {
		log.Fatal().Err(err).Msg("build failed")
	}
	fmt.Println(out)
}

func embedCommand() {
	fs := flag.NewFlagSet("embed", flag.ExitOnError)
	projectFile := fs.String("project", "", "Path to the project JSON file")
	exe := fs.String("exe", "", "Executable to embed into")
	fs.Parse(os.Args[2:])

	if *projectFile == "" || *exe == "" {
		fs.Usage()
		os.Exit(1)
	}

	projectJSON, err := os.ReadFile(*projectFile)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to read project file")
	}

	media, err := mediaFromArgs(fs.Args())
	if err != nil {
		log.Fatal().Err(err).Msg("invalid media argument")
	}

	if err := carton.Embed(*exe, string(projectJSON), media); err != nil {
		log.Fatal().Err(err).Msg("embed failed")
	}
}

// mediaFromArgs parses trailing id=path media arguments.
func mediaFromArgs(args []string) ([]common.MediaSource, error) {
	var media []common.MediaSource
	for _, arg := range args {
		id, path, ok := cutMediaArg(arg)
		if !ok {
			return nil, fmt.Errorf("expected id=path, got %q", arg)
		}
		media = append(media, common.MediaSource{
			ID:         id,
			Name:       path,
			SourcePath: path,
		})
	}
	return media, nil
}

func cutMediaArg(arg string) (id string, path string, ok bool) {
	for i := 0; i < len(arg); i++ {
		if arg[i] == '=' {
			return arg[:i], arg[i+1:], i > 0 && i < len(arg)-1
		}
	}
	return "", "", false
}

func projectCommand() {
	fs := flag.NewFlagSet("project", flag.ExitOnError)
	exe := fs.String("exe", "", "Executable to read")
	fs.Parse(os.Args[2:])

	if *exe == "" {
		fs.Usage()
		os.Exit(1)
	}

	projectJSON, err := carton.LoadProject(*exe)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to load project")
	}
	fmt.Println(projectJSON)
}

func lsCommand() {
	fs := flag.NewFlagSet("ls", flag.ExitOnError)
	exe := fs.String("exe", "", "Executable to read")
	fs.Parse(os.Args[2:])

	if *exe == "" {
		fs.Usage()
		os.Exit(1)
	}

	entries, err := carton.ListAssets(*exe)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to list assets")
	}
	for _, e := range entries {
		fmt.Printf("%s\t%s\t%s\t%d\n", e.ID, e.Name, e.MimeType, e.Size)
	}
}

func extractCommand() {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	exe := fs.String("exe", "", "Executable to read")
	id := fs.String("id", "", "Asset id to extract")
	output := fs.String("output", "", "Output file")
	fs.Parse(os.Args[2:])

	if *exe == "" || *id == "" || *output == "" {
		fs.Usage()
		os.Exit(1)
	}

	data, err := carton.LoadAsset(*exe, *id)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to load asset")
	}
	if err := os.WriteFile(*output, data, 0644); err != nil {
		log.Fatal().Err(err).Msg("unable to write output file")
	}
}

func publishCommand() {
	fs := flag.NewFlagSet("publish", flag.ExitOnError)
	path := fs.String("path", "", "Built executable to upload")
	bucket := fs.String("bucket", "", "S3 bucket")
	key := fs.String("key", "", "S3 object key")
	region := fs.String("region", "", "S3 region")
	endpoint := fs.String("endpoint", "", "Custom S3 endpoint")
	forcePathStyle := fs.Bool("force-path-style", false, "Use path-style S3 addressing")
	fs.Parse(os.Args[2:])

	if *path == "" || *bucket == "" || *key == "" {
		fs.Usage()
		os.Exit(1)
	}

	err := publish.PublishS3(context.Background(), *path, publish.S3Options{
		Bucket:         *bucket,
		Key:            *key,
		Region:         *region,
		Endpoint:       *endpoint,
		ForcePathStyle: *forcePathStyle,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("publish failed")
	}
}
