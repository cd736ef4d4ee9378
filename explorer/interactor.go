package explorer

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Runs the main interactive loop
func (e *Explorer) Interact() {
	fmt.Printf("%s", e.header())
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Printf("%s", e.prompt())

		optionS, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println("Invalid input! Try again")
			continue
		}
		option, err := strconv.Atoi(strings.Replace(optionS, "\n", "", -1))
		if err != nil {
			fmt.Println("Invalid input! Try again")
			continue
		}
		fmt.Println("------------------------------------")
		switch option {
		case 1:
			fmt.Printf("%s", e.getInitialStates())
		case 2:
			fmt.Printf("Enter the state key: ")
			stateK, err := reader.ReadString('\n')
			if err != nil {
				fmt.Println("Invalid input! Try again")
				continue
			}
			fmt.Printf("%s", e.getQValues(strings.Replace(stateK, "\n", "", -1)))
		case 3:
			fmt.Printf("%s", e.getMostVisited(20))
		case 4:
			fmt.Printf("Enter trace number (1-%d): ", len(e.Traces))
			traceNoS, err := reader.ReadString('\n')
			if err != nil {
				fmt.Println("Invalid input! Try again")
				continue
			}
			traceNo, err := strconv.Atoi(strings.Replace(traceNoS, "\n", "", -1))
			if err != nil {
				fmt.Println("Invalid input! Not a number. Try again")
				continue
			}
			if traceNo < 1 || traceNo > len(e.Traces) {
				fmt.Printf("Invalid input! Should be between (1-%d). Try again\n", len(e.Traces))
				continue
			}
			fmt.Printf("%s", e.getTrace(traceNo-1))
		case 5:
			fmt.Println("Quitting! Thank you")
			return
		default:
			fmt.Println("Wrong choice! Try again!")
		}
	}
}

func (e *Explorer) getQValues(state string) string {
	values, ok := e.QTable.GetAll(state)
	if !ok {
		return "No such state in the q table\n"
	}
	if len(values) == 0 {
		return "No values in the q table for the corresponding state\n"
	}
	out := "Q values are:\n"
	actions := make([]string, 0, len(values))
	for a := range values {
		actions = append(actions, a)
	}
	sort.Slice(actions, func(i, j int) bool {
		return values[actions[i]] > values[actions[j]]
	})
	for _, a := range actions {
		out += fmt.Sprintf("%s: %f\n", a, values[a])
	}
	return out
}

func (e *Explorer) getInitialStates() string {
	initialStates := make(map[string]int)
	for _, t := range e.Traces {
		if len(t) == 0 {
			continue
		}
		initialStates[t[0].State] += 1
	}
	out := "Initial States are:\n"
	for k, o := range initialStates {
		out += fmt.Sprintf("%s: %d\n", k, o)
	}
	return out
}

func (e *Explorer) getMostVisited(n int) string {
	keys := make([]string, 0, len(e.StateVisits))
	for k := range e.StateVisits {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return e.StateVisits[keys[i]] > e.StateVisits[keys[j]]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	out := "Most visited states:\n"
	for _, k := range keys {
		out += fmt.Sprintf("%s: %d\n", k, e.StateVisits[k])
	}
	return out
}

func (e *Explorer) getTrace(i int) string {
	out := ""
	for _, step := range e.Traces[i] {
		out += fmt.Sprintf("Step %d\nState: %s\nAction: %s (of %d)\nReward: %.3f\nNext: %s\n\n",
			step.Step, step.State, step.Action, len(step.Actions), step.Reward, step.NextState)
	}
	return out
}

func (e *Explorer) header() string {
	return `
Welcome to the q table explorer!
	`
}

func (e *Explorer) prompt() string {
	return fmt.Sprintf(`
Loaded %d traces covering %d states.

What would you like to do?
1. List initial states
2. Show q values of a state
3. Show most visited states
4. Walk through a trace
5. Quit

Choose an option: `, len(e.Traces), len(e.StateVisits))
}
