package main

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/vocdoni/privacy-pool/api/client"
	"github.com/vocdoni/privacy-pool/crypto/ethereum"
	"github.com/vocdoni/privacy-pool/log"
	"github.com/vocdoni/privacy-pool/note"
	"github.com/vocdoni/privacy-pool/types"
)

const usage = `usage: poolcli <command> [flags]

commands:
  stats         show the pool statistics
  note          create a new note for --value
  deposit       create a note and deposit it, signed with --key
  events        list the pool events
  proof         show the inclusion proof of --commitment
  publish-root  publish the approval root --root (admin --key)
  winddown      wind down the pool (admin --key)
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	fs := flag.NewFlagSet(os.Args[1], flag.ExitOnError)
	host := fs.String("api", "http://localhost:8080", "pool API url")
	key := fs.String("key", "", "hex private key used to sign the request")
	value := fs.String("value", "0", "note value")
	from := fs.Uint64("from", 0, "first event")
	limit := fs.Int("limit", 100, "maximum number of events")
	commitment := fs.String("commitment", "", "commitment to prove")
	root := fs.String("root", "", "approval root")
	cid := fs.String("cid", "", "approval root data cid")
	logLevel := fs.String("log.level", log.LogLevelWarn, "log level")
	if err := fs.Parse(os.Args[2:]); err != nil {
		log.Fatal(err)
	}
	log.Init(*logLevel, "stderr", nil)

	if os.Args[1] == "note" {
		n, err := note.New(bigArg("value", *value))
		if err != nil {
			log.Fatal(err)
		}
		printNote(n)
		return
	}

	cli, err := client.New(*host)
	if err != nil {
		log.Fatal(err)
	}
	switch os.Args[1] {
	case "stats":
		stats, err := cli.Stats()
		if err != nil {
			log.Fatal(err)
		}
		printJSON(stats)
	case "deposit":
		keys := signKeys(*key)
		n, err := note.New(bigArg("value", *value))
		if err != nil {
			log.Fatal(err)
		}
		pre, err := n.Precommitment()
		if err != nil {
			log.Fatal(err)
		}
		res, err := cli.Deposit(keys, n.Value, pre)
		if err != nil {
			log.Fatal(err)
		}
		n.SetLabel(res.Label.MathBigInt())
		log.Infow("deposit accepted", "leafIndex", res.LeafIndex, "root", res.Root.String())
		printNote(n)
	case "events":
		events, err := cli.Events(*from, *limit)
		if err != nil {
			log.Fatal(err)
		}
		printJSON(events)
	case "proof":
		proof, err := cli.ProveCommitment(bigArg("commitment", *commitment))
		if err != nil {
			log.Fatal(err)
		}
		printJSON(proof)
	case "publish-root":
		rec, err := cli.PublishApprovalRoot(signKeys(*key), bigArg("root", *root), *cid)
		if err != nil {
			log.Fatal(err)
		}
		printJSON(rec)
	case "winddown":
		if err := cli.WindDown(signKeys(*key)); err != nil {
			log.Fatal(err)
		}
		fmt.Println("pool wound down")
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}

func bigArg(name, s string) *big.Int {
	v := new(types.BigInt)
	if err := v.UnmarshalText([]byte(s)); err != nil {
		log.Fatalf("invalid --%s: %v", name, err)
	}
	return v.MathBigInt()
}

func signKeys(hexKey string) *ethereum.SignKeys {
	keys := ethereum.NewSignKeys()
	if err := keys.AddHexKey(hexKey); err != nil {
		log.Fatalf("invalid --key: %v", err)
	}
	return keys
}

// printNote prints the note with its derived hashes. The output holds the
// note secrets.
func printNote(n *note.Note) {
	out := struct {
		*note.Note
		Precommitment *big.Int `json:"precommitment"`
		Commitment    *big.Int `json:"commitment,omitempty"`
		NullifierHash *big.Int `json:"nullifierHash"`
	}{Note: n}
	var err error
	if out.Precommitment, err = n.Precommitment(); err != nil {
		log.Fatal(err)
	}
	if out.NullifierHash, err = n.NullifierHash(); err != nil {
		log.Fatal(err)
	}
	if n.Label != nil {
		if out.Commitment, err = n.Commitment(); err != nil {
			log.Fatal(err)
		}
	}
	printJSON(out)
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(data))
}
