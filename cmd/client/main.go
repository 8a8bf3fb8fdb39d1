// cmd/client/main.go
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/cabo-arena/cabo-client/internal/client"
	"github.com/cabo-arena/cabo-client/internal/config"
	"github.com/cabo-arena/cabo-client/internal/engine"
)

func main() {
	cfg := config.Load()

	logger := logrus.New()
	logger.SetLevel(cfg.ParseLevel())

	c := client.New(cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	go func() {
		<-sigs
		logger.Info("Interrupted, shutting down")
		cancel()
	}()

	errc := make(chan error, 1)
	go func() {
		errc <- c.Run(ctx)
	}()

	go commandLoop(c, logger)

	if err := <-errc; err != nil && ctx.Err() == nil {
		logger.Fatalf("client exited: %v", err)
	}
}

// commandLoop reads simple stdin commands and maps them onto engine intents.
// It exists so the engine is drivable end to end without any UI.
func commandLoop(c *client.Client, logger *logrus.Logger) {
	eng := c.Engine()
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		var err error
		switch fields[0] {
		case "draw":
			err = eng.DrawCard()
		case "play":
			err = eng.PlayDrawnCard()
		case "replace":
			var idx int
			if idx, err = argInt(fields, 1); err == nil {
				err = eng.ReplaceAndPlay(idx)
			}
		case "select":
			var idx int
			if len(fields) < 3 {
				err = fmt.Errorf("usage: select <player_id> <card_index>")
				break
			}
			if idx, err = argInt(fields, 2); err == nil {
				eng.ToggleSelect(fields[1], idx)
			}
		case "stack":
			err = eng.CallStack()
		case "cabo":
			err = eng.CallCabo()
		case "skipswap":
			err = eng.SkipKingSwap()
		case "skipgive":
			err = eng.SkipGiveCard()
		case "state":
			printState(eng.Snapshot())
		case "status":
			fmt.Printf("connection: %s\n", c.Status())
		case "quit":
			c.Leave()
			return
		default:
			err = fmt.Errorf("unknown command %q", fields[0])
		}
		if err != nil {
			logger.Warnf("Command failed: %v", err)
		}
	}
}

func argInt(fields []string, i int) (int, error) {
	if len(fields) <= i {
		return 0, fmt.Errorf("missing argument")
	}
	return strconv.Atoi(fields[i])
}

func printState(st *engine.State) {
	fmt.Printf("room %s (%s) phase=%s current=%s\n", st.RoomID, st.Status, st.Phase, st.CurrentPlayerID)
	if st.CaboCalledBy != "" {
		fmt.Printf("cabo called by %s\n", st.CaboCalledBy)
	}
	if top := len(st.DiscardPile); top > 0 {
		c := st.DiscardPile[top-1]
		fmt.Printf("discard top: %s%s\n", c.Rank, c.Suit)
	}
	for _, p := range st.Players {
		marker := " "
		if p.ID == st.CurrentPlayerID {
			marker = "*"
		}
		fmt.Printf("%s %s (%s):", marker, p.Nickname, p.ID)
		for _, card := range p.Hand {
			if st.FaceUp(card) {
				fmt.Printf(" [%s%s]", card.Rank, card.Suit)
			} else {
				fmt.Printf(" [##]")
			}
		}
		if p.DrawnCard != nil {
			fmt.Printf(" drawn:[%s%s]", p.DrawnCard.Rank, p.DrawnCard.Suit)
		}
		fmt.Println()
	}
	if st.Phase == engine.PhaseEnded {
		fmt.Printf("winner: %s scores: %v\n", st.WinnerID, st.Scores)
	}
}
