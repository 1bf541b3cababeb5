package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/qnkhuat/termchess/pkg"
	"github.com/qnkhuat/termchess/pkg/gui"
	"golang.org/x/term"
)

var (
	nickname      string
	serverAddress string
	clockFlag     string
	themeName     string
	themeFile     string
	logPath       string
	plain         bool
	noColor       bool
)

func init() {
	flag.StringVar(&nickname, "name", pkg.Getenv("CHESSTERM_NAME", ""), "nickname, random when empty")
	flag.StringVar(&serverAddress, "server", pkg.Getenv("CHESSTERM_SERVER", "localhost"+pkg.ServerPort), "server address")
	flag.StringVar(&clockFlag, "clock", pkg.Getenv("CHESSTERM_CLOCK", "10+0"), "time control as minutes[:seconds][+increment], or untimed")
	flag.StringVar(&themeName, "theme", pkg.Getenv("CHESSTERM_THEME", gui.ThemeBasic.Name), "board theme")
	flag.StringVar(&themeFile, "themes", pkg.Getenv("CHESSTERM_THEMES", ""), "JSON file with custom themes")
	flag.StringVar(&logPath, "log", pkg.Getenv("CHESSTERM_LOG", "./log"), "path to log file")
	flag.BoolVar(&plain, "plain", false, "play with line commands instead of the full screen board")
	flag.BoolVar(&noColor, "no-color", false, "disable colors in plain mode")
}

func loadTheme() (gui.Theme, error) {
	var custom []gui.ThemeHex
	if themeFile != "" {
		data, err := os.ReadFile(themeFile)
		if err != nil {
			return gui.Theme{}, err
		}
		if err := json.Unmarshal(data, &custom); err != nil {
			return gui.Theme{}, fmt.Errorf("failed to read themes from %s: %w", themeFile, err)
		}
	}
	return gui.ImportThemes(themeName, custom)
}

func main() {
	flag.Parse()
	pkg.InitLog(logPath, "CLIENT: ")

	clock, err := pkg.ParseClockSetting(clockFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	theme, err := loadTheme()
	if err != nil {
		fmt.Fprintf(os.Stderr, "theme %q: %s\n", themeName, err)
		os.Exit(2)
	}

	conn, err := pkg.Connect(serverAddress)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to %s: %s\n", serverAddress, err)
		os.Exit(1)
	}
	session := pkg.NewSession(conn, pkg.Nickname(nickname), clock)
	defer session.Close()
	log.Printf("Connected to %s as %s", serverAddress, session.Name)

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc,
		syscall.SIGINT,
		syscall.SIGTERM)
	go func() {
		<-sigc

		session.Close()
		os.Exit(0)
	}()

	if plain || !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		if noColor {
			color.NoColor = true
		}
		err = pkg.NewLineClient(session, color.Output).Play(os.Stdin)
	} else {
		err = pkg.NewClient(session, theme).Run()
	}
	if err != nil {
		log.Println(err)
		session.Close()
		os.Exit(1)
	}
}
