package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/qnkhuat/termchess/pkg"
)

var (
	listenAddress    string
	listenAddressSSH string
	sshHostKey       string
	clientBinary     string
	logPath          string

	done = make(chan bool)
)

func init() {
	flag.StringVar(&listenAddress, "listen", pkg.Getenv("CHESSTERM_LISTEN", pkg.ServerPort), "host server on network address")
	flag.StringVar(&listenAddressSSH, "listen-ssh", pkg.Getenv("CHESSTERM_LISTEN_SSH", ""), "host SSH server on network address")
	flag.StringVar(&sshHostKey, "ssh-host-key", pkg.Getenv("CHESSTERM_SSH_HOST_KEY", ""), "path to the SSH host key, generated when empty")
	flag.StringVar(&clientBinary, "chessterm", pkg.Getenv("CHESSTERM_CLIENT", "chessterm"), "path to chessterm client, run for SSH sessions")
	flag.StringVar(&logPath, "log", pkg.Getenv("CHESSTERM_LOG", ""), "path to log file, stderr when empty")
}

func main() {
	flag.Parse()

	if logPath != "" {
		pkg.InitLog(logPath, "SERVER: ")
	} else {
		log.SetPrefix("SERVER: ")
	}

	var interfaces []pkg.ServerInterface
	if listenAddressSSH != "" {
		interfaces = append(interfaces, &pkg.SSHServer{
			ListenAddress: listenAddressSSH,
			HostKeyFile:   sshHostKey,
			ClientBinary:  clientBinary,
			ServerAddress: listenAddress,
		})
	}

	server, err := pkg.NewServer(interfaces...)
	if err != nil {
		log.Fatal(err)
	}

	go func() {
		if err := server.Listen(listenAddress); err != nil {
			log.Println(err)
			done <- true
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc,
		syscall.SIGINT,
		syscall.SIGTERM)
	go func() {
		<-sigc

		done <- true
	}()

	<-done

	server.Shutdown("server stopped")
}
