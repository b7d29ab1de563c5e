package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/vortechron/go-dynamic-image/config"
	"github.com/vortechron/go-dynamic-image/dynamicimage"
)

const usage = `usage: dynamicimage [-config file] <command> [flags] [args]

commands:
  add     [-collection name] FILE|URL...   add media and generate its sizes
  render  [-debug] [-editor]               expand shortcodes read from stdin
  image   -src SRC [-width N] [-height N] [-classes C] [-hwmarkup=false]
  delete  ID...                            delete media with all sizes
  migrate                                  create database tables
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("dynamicimage", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	configPath := fs.String("config", os.Getenv(config.EnvPrefix+"_CONFIG"), "path to a YAML config file")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to start: %v\n", err)
		return 1
	}
	defer a.Close()

	cmd, cmdArgs := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "add":
		err = a.add(ctx, cmdArgs, stdout)
	case "render":
		err = a.render(ctx, cmdArgs, stdin, stdout)
	case "image":
		err = a.image(ctx, cmdArgs, stdout)
	case "delete":
		err = a.delete(ctx, cmdArgs, stdout)
	case "migrate":
		err = a.migrate(ctx)
		if err == nil {
			fmt.Fprintln(stdout, "migrated")
		}
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", cmd)
		fs.Usage()
		return 2
	}

	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", cmd, err)
		return 1
	}
	return 0
}

func (a *app) add(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	collection := fs.String("collection", "uploads", "collection name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("nothing to add")
	}

	for _, src := range fs.Args() {
		addFrom := a.lib.AddMediaFromDisk
		if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
			addFrom = a.lib.AddMediaFromURL
		}

		media, err := addFrom(ctx, src, *collection)
		if err != nil {
			return fmt.Errorf("failed to add %s: %w", src, err)
		}
		fmt.Fprintf(stdout, "%d\t%s\n", media.ID, a.lib.GetURLForMedia(media))
	}
	return nil
}

func viewerFlags(fs *flag.FlagSet) func() dynamicimage.Viewer {
	loggedIn := fs.Bool("logged-in", false, "render for a logged in user")
	canEdit := fs.Bool("can-edit", false, "render for a user who can edit posts")
	editor := fs.Bool("editor", false, "shorthand for -logged-in -can-edit")

	return func() dynamicimage.Viewer {
		return dynamicimage.Viewer{
			LoggedIn:     *loggedIn || *editor,
			CanEditPosts: *canEdit || *editor,
		}
	}
}

func (a *app) render(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	debug := fs.Bool("debug", false, "show errors to editors")
	viewer := viewerFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	content, err := io.ReadAll(stdin)
	if err != nil {
		return fmt.Errorf("failed to read content: %w", err)
	}

	if *debug {
		if err := dynamicimage.Register(a.shortcodes, a.lib, a.imageOptions(true)...); err != nil {
			return err
		}
	}

	ctx = dynamicimage.WithViewer(ctx, viewer())
	_, err = io.WriteString(stdout, a.shortcodes.Do(ctx, string(content)))
	return err
}

func (a *app) image(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("image", flag.ContinueOnError)
	src := fs.String("src", "", "image URL or attachment ID")
	width := fs.String("width", "", "width in pixels")
	height := fs.String("height", "", "height in pixels")
	classes := fs.String("classes", "", "class attribute")
	hwmarkup := fs.String("hwmarkup", "true", "emit width and height attributes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	img := dynamicimage.New(a.lib, map[string]string{
		"src":      *src,
		"width":    *width,
		"height":   *height,
		"classes":  *classes,
		"hwmarkup": *hwmarkup,
	}, a.imageOptions(false)...)

	out, err := img.Get(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, out)
	return nil
}

func (a *app) delete(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errors.New("no IDs given")
	}

	for _, arg := range args {
		id, err := strconv.ParseUint(arg, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid ID %q: %w", arg, err)
		}
		if err := a.lib.DeleteMedia(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "deleted %d\n", id)
	}
	return nil
}
