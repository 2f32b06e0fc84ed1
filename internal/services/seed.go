package services

import "time"

type seedQuestion struct {
	title, description string
	tags               []Tag
}

var seedQuestions = []seedQuestion{
	{"What is recursion?", "How does recursion work and where is it useful?", []Tag{TagRecursion}},
	{"Difference between Array and Linked List?", "Which one is better for insertions?", []Tag{TagArray, TagLinkedList}},
	{"What is Dynamic Programming?", "How is it different from recursion?", []Tag{TagDP}},
	{"Explain Hash Tables", "How do hash functions work?", []Tag{TagHashing}},
	{"What is a Graph?", "Explain BFS and DFS with use-cases.", []Tag{TagGraph}},
	{"Sorting Algorithms", "Compare Merge Sort and Quick Sort.", []Tag{TagSorting}},
	{"What is Backtracking?", "How is it used in N-Queens problem?", []Tag{TagRecursion}},
	{"Best data structure for LRU cache?", "How to implement LRU efficiently?", []Tag{TagHashing, TagLinkedList}},
	{"When to use Dynamic Programming?", "Identify DP from problem statement.", []Tag{TagDP}},
	{"Difference between Stack and Queue?", "When to use which one?", []Tag{TagArray}},
	{"Advantages of Linked Lists", "Over arrays and when to use them?", []Tag{TagLinkedList}},
	{"Cycle detection in Graph", "Using DFS and Union-Find approach.", []Tag{TagGraph}},
	{"Heap vs Binary Search Tree", "Which is better for priority queue?", []Tag{TagSorting}},
	{"Kadane's Algorithm", "How to find max subarray sum?", []Tag{TagDP}},
	{"What is a Trie?", "Explain trie data structure and usage.", []Tag{TagHashing}},
	{"Quick Sort worst case?", "Explain pivot strategies to avoid it.", []Tag{TagSorting}},
	{"What is Topological Sort?", "Use-cases of topological ordering.", []Tag{TagGraph}},
	{"Sliding Window Technique", "When and how to apply it?", []Tag{TagArray}},
	{"Two Pointer Technique", "Explain its application in problems.", []Tag{TagArray}},
	{"Floyd's Cycle Detection", "Detect cycle in linked list.", []Tag{TagLinkedList}},
	{"0/1 Knapsack Problem", "Classic DP approach explained.", []Tag{TagDP}},
	{"Minimum Spanning Tree", "Prim's vs Kruskal's algorithm.", []Tag{TagGraph}},
}

// DefaultQuestions builds the seed collection with fresh ids. The first
// question is the most recent so the list reads newest first.
func DefaultQuestions(now time.Time, newID func() string) []*Question {
	out := make([]*Question, 0, len(seedQuestions))
	for i, sq := range seedQuestions {
		out = append(out, &Question{
			ID:          newID(),
			Title:       sq.title,
			Description: sq.description,
			Tags:        append([]Tag(nil), sq.tags...),
			Author:      SeedAuthor,
			Answers:     []*Answer{},
			CreatedAt:   now.Add(-time.Duration(i) * time.Second),
		})
	}
	return out
}
