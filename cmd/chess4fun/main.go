package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/notnil/chess"
	"github.com/qnkhuat/chess4fun/pkg"
	"github.com/qnkhuat/chess4fun/pkg/config"
	"github.com/qnkhuat/chess4fun/pkg/gui"
	"github.com/qnkhuat/chess4fun/pkg/opening"
	"github.com/qnkhuat/chess4fun/pkg/sound"
	"go.uber.org/zap"
	"golang.org/x/term"
)

const usage = `usage: chess4fun [flags] [command]

commands:
  (none)                         start the board
  book build <file.pgn> [out.db] build an opening book from a PGN collection
  opening <san moves...>         name the opening reached by the moves

flags:
`

func main() {
	logPath := flag.String("log", "", "path to log file (default <root>/log)")
	rootPath := flag.String("root", "", "data directory (default ~/"+config.DataDirName+")")
	fen := flag.String("fen", "", "start from this FEN instead of the initial position")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	root, err := config.DataRoot(*rootPath)
	if err != nil {
		fatal(err)
	}
	if *logPath == "" {
		*logPath = filepath.Join(root, "log")
	}
	log, err := pkg.InitLog(*logPath, "client")
	if err != nil {
		fatal(err)
	}
	defer log.Sync()

	args := flag.Args()
	switch {
	case len(args) == 0:
		err = runBoard(root, *fen, log)
	case args[0] == "book" && len(args) >= 3 && args[1] == "build":
		err = buildBook(root, args[2:], log)
	case args[0] == "opening":
		err = nameOpening(root, args[1:], log)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Errorw("exit", "err", err)
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
	os.Exit(1)
}

func runBoard(root, fen string, log *zap.SugaredLogger) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("chess4fun needs an interactive terminal")
	}
	prefs, err := config.Load(root)
	if err != nil {
		return err
	}
	book := loadBook(root, prefs.BookPath, log)
	player := sound.NewPlayer(prefs.SoundDir, prefs.SoundEnabled, log)

	cl, err := gui.NewClient(gui.Options{
		Prefs: prefs,
		Book:  book,
		Sound: player,
		FEN:   fen,
	}, log)
	if err != nil {
		player.Close()
		return err
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() { // Down when receive killed signal
		<-sigc
		cl.Stop()
	}()

	log.Infow("client started", "root", root, "book", book.Len())
	return cl.Run()
}

// loadBook prefers a built book file and falls back to the bundled ECO table
func loadBook(root, path string, log *zap.SugaredLogger) *opening.Book {
	if path == "" {
		path = filepath.Join(root, config.BookFile)
	}
	if _, err := os.Stat(path); err == nil {
		book, err := opening.LoadFile(context.Background(), path)
		if err == nil {
			return book
		}
		log.Warnw("failed to load opening book", "path", path, "err", err)
	} else if !errors.Is(err, fs.ErrNotExist) {
		log.Warnw("failed to stat opening book", "path", path, "err", err)
	}
	book, err := opening.LoadECO()
	if err != nil {
		log.Warnw("failed to load ECO table", "err", err)
		return opening.NewBook(nil)
	}
	return book
}

func buildBook(root string, args []string, log *zap.SugaredLogger) error {
	out := filepath.Join(root, config.BookFile)
	if len(args) > 1 {
		out = args[1]
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	entries, err := opening.ReadPGN(f)
	if err != nil {
		return err
	}
	store, err := opening.OpenStore(out)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Save(context.Background(), entries); err != nil {
		return err
	}
	log.Infow("opening book built", "pgn", args[0], "out", out, "entries", len(entries))
	fmt.Printf("%s %d openings written to %s\n", color.GreenString("ok"), len(entries), out)
	return nil
}

func nameOpening(root string, sans []string, log *zap.SugaredLogger) error {
	prefs, err := config.Load(root)
	if err != nil {
		return err
	}
	game := chess.NewGame()
	for _, san := range sans {
		// accept "1." and "1.e4" alike
		if i := strings.LastIndex(san, "."); i >= 0 {
			san = san[i+1:]
		}
		if san == "" {
			continue
		}
		if err := game.MoveStr(san); err != nil {
			return fmt.Errorf("%w: %s", pkg.ErrIllegalMove, san)
		}
	}

	book := loadBook(root, prefs.BookPath, log)
	entry, ok := book.Find(game.Moves())
	if !ok {
		fmt.Println(color.YellowString(opening.Unknown))
		os.Exit(1)
	}
	fmt.Printf("%s %s\n", color.CyanString(entry.ECO), entry.Variation)
	return nil
}
