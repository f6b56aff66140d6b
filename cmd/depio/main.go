package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/docopt/docopt-go"
	log "github.com/sirupsen/logrus"

	"github.com/wwpdb/depio/depio"
)

func init() {
	if os.Getenv("DEBUG") == "1" {
		log.SetLevel(log.DebugLevel)
	}
	log.SetFormatter(&log.TextFormatter{TimestampFormat: "15:04:05.999999999"})
}

type cliOpts struct {
	Path      bool
	Parse     bool
	Check     bool
	Versions  bool
	Release   bool
	DatasetID string `docopt:"<dataset-id>"`
	Content   string `docopt:"<content-type>"`
	Format    string `docopt:"<format>"`
	Filename  string `docopt:"<filename>"`
	Subdir    string `docopt:"<subdir>"`
	Config    string `docopt:"--config"`
	Source    string `docopt:"--source"`
	Version   string `docopt:"--version-id"`
	Part      string `docopt:"--part"`
	Milestone string `docopt:"--milestone"`
	Instance  string `docopt:"--instance"`
	Cycle     string `docopt:"--cycle"`
	ReqVer    bool   `docopt:"--require-version"`
	Template  bool   `docopt:"--template"`
}

func main() {
	os.Exit(run())
}

func run() (rc int) {
	usage := `depio - versioned data file path resolution for deposition archives

Usage:
  depio path <dataset-id> <content-type> <format> [--config=<file>] [--source=<class>] [--version-id=<v>] [--part=<n>] [--milestone=<m>] [--instance=<id>] [--template]
  depio parse <filename> [--config=<file>]
  depio check <filename> [--require-version] [--config=<file>]
  depio versions <dataset-id> <content-type> <format> [--config=<file>] [--source=<class>] [--part=<n>] [--milestone=<m>]
  depio release <subdir> [--cycle=<c>] [--config=<file>]

Options:
  -h --help            Show this screen.
  --config=<file>      Site configuration file [default: site.json].
  --source=<class>     Storage class [default: archive].
  --version-id=<v>     Version selector: latest, next, previous, none or a number [default: latest].
  --part=<n>           Partition number [default: 1].
  --milestone=<m>      Content milestone (deposit, upload, annotate, review, release).
  --instance=<id>      Workflow instance id.
  --cycle=<c>          Release cycle: current or previous [default: current].
  --require-version    Reject filenames without a version suffix.
  --template           Print the version search template instead of a resolved path.
`
	parser := &docopt.Parser{OptionsFirst: false}
	parsed, err := parser.ParseArgs(usage, os.Args[1:], "0.1")
	if err != nil {
		log.Error(err)
		return 22
	}
	var opts cliOpts
	if err := parsed.Bind(&opts); err != nil {
		log.Error(err)
		return 22
	}
	log.Debug(opts)

	cfg, err := depio.LoadSiteConfig(opts.Config)
	if err != nil {
		log.Error(err)
		return 10
	}
	pi := depio.NewPathInfo(cfg)

	switch {
	case opts.Path:
		refOpts, err := refOptions(opts)
		if err != nil {
			log.Error(err)
			return 22
		}
		var out string
		if opts.Template {
			out, err = pi.VersionTemplate(opts.DatasetID, refOpts...)
		} else {
			out, err = pi.FilePath(opts.DatasetID, refOpts...)
		}
		if err != nil {
			log.Error(err)
			return 42
		}
		fmt.Println(out)

	case opts.Parse:
		c, ok := pi.ParseFileName(opts.Filename)
		if !ok {
			log.Errorf("not a managed filename: %s", opts.Filename)
			return 42
		}
		fmt.Printf("dataset=%s content-type=%s format=%s partition=%d version=%d\n",
			c.DatasetID, c.ContentType, c.Format, c.Partition, c.Version)

	case opts.Check:
		if !pi.IsValidFileName(opts.Filename, opts.ReqVer) {
			fmt.Println("invalid")
			return 1
		}
		fmt.Println("valid")

	case opts.Versions:
		refOpts, err := refOptions(opts)
		if err != nil {
			log.Error(err)
			return 22
		}
		m := depio.NewMaintenance(cfg, false)
		infos, err := m.VersionFileList(opts.DatasetID, refOpts...)
		if err != nil {
			log.Error(err)
			return 42
		}
		for _, info := range infos {
			fmt.Printf("V%d\t%d\t%s\t%s\n", info.Version, info.Size,
				info.ModTime.Format("2006-01-02 15:04:05"), info.Path)
		}

	case opts.Release:
		rp := depio.NewReleasePaths(cfg)
		dir, err := rp.ForReleasePath(opts.Subdir, opts.Cycle)
		if err != nil {
			log.Error(err)
			return 42
		}
		fmt.Println(dir)
	}
	return 0
}

func refOptions(opts cliOpts) ([]depio.RefOption, error) {
	class, err := depio.ParseStorageClass(opts.Source)
	if err != nil {
		return nil, err
	}
	version, err := depio.ParseVersion(opts.Version)
	if err != nil {
		return nil, err
	}
	part, err := strconv.Atoi(opts.Part)
	if err != nil {
		return nil, fmt.Errorf("partition %q: %w", opts.Part, err)
	}

	refOpts := []depio.RefOption{
		depio.WithContent(opts.Content, opts.Format),
		depio.WithStorage(class),
		depio.WithVersion(version),
		depio.WithPartition(depio.PartitionNumber(part)),
	}
	if opts.Milestone != "" {
		refOpts = append(refOpts, depio.WithMilestone(opts.Milestone))
	}
	if opts.Instance != "" {
		refOpts = append(refOpts, depio.WithInstance(opts.Instance))
	}
	return refOpts, nil
}
